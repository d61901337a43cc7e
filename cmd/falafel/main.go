package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"falafel/internal/ast"
	"falafel/internal/checker"
	"falafel/internal/codegen"
	"falafel/internal/config"
	"falafel/internal/diag"
	"falafel/internal/ir"
	"falafel/internal/loader"
)

const version = "0.1.0"

// Exit statuses.
const (
	exitOK       = 0
	exitFailure  = 1 // bad input: transport, type or config errors
	exitUsage    = 2
	exitInternal = 3
)

// usageError is a malformed command line. Flag errors are printed by the
// flag package already.
type usageError struct {
	msg      string
	reported bool
}

func (e *usageError) Error() string { return e.msg }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}

	var err error
	switch cmd := args[0]; cmd {
	case "build":
		err = cmdBuild(args[1:], stdout, stderr)
	case "check":
		err = cmdCheck(args[1:], stderr)
	case "dump":
		err = cmdDump(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	case "version", "--version":
		fmt.Fprintln(stdout, "falafel", version)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		usage(stderr)
		return exitUsage
	}
	var ue *usageError
	if errors.As(err, &ue) && !ue.reported {
		fmt.Fprintln(stderr, "error:", ue)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, new(*usageError)), errors.Is(err, flag.ErrHelp):
		return exitUsage
	case errors.Is(err, codegen.ErrInternal):
		return exitInternal
	default:
		return exitFailure
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Falafel compiler back end

Usage:
  falafel build <tree.json> [-o out.cpp] [-config falafel.yaml] [-v]
  falafel check <tree.json> [-config falafel.yaml] [-v]
  falafel dump  <tree.json>

Commands:
  build    Type-check a syntax tree and generate C++
  check    Type-check a syntax tree only
  dump     Print the decoded syntax tree
  version  Print the compiler version

The syntax tree is the JSON document produced by the parser front end.
Settings are read from falafel.yaml in the working directory when present,
then from FALAFEL_WARNINGS, FALAFEL_COLOR, FALAFEL_VERBOSE and NO_COLOR.

Flags:
  -o       Output file, - for stdout (default from config, else stdout)
  -config  Settings file
  -v       Verbose progress notes`)
}

type options struct {
	input      string
	output     string
	configPath string
	verbose    bool
}

// parseFlags accepts flags before and after the input path.
func parseFlags(name string, args []string, stderr io.Writer, withOutput bool) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	if withOutput {
		fs.StringVar(&opts.output, "o", "", "output file, - for stdout")
	}
	fs.StringVar(&opts.configPath, "config", "", "settings file")
	fs.BoolVar(&opts.verbose, "v", false, "verbose progress notes")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, &usageError{msg: err.Error(), reported: true}
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	switch len(positional) {
	case 0:
		return nil, &usageError{msg: name + ": missing input file"}
	case 1:
		opts.input = positional[0]
		return opts, nil
	default:
		return nil, &usageError{msg: fmt.Sprintf("%s: exactly one input file expected, got %d", name, len(positional))}
	}
}

// session carries the settings and diagnostics of one invocation.
type session struct {
	cfg *config.Config
	rep *diag.Reporter
}

func newSession(opts *options, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if opts.output != "" {
		cfg.Output = opts.output
	}
	if opts.verbose {
		cfg.Verbose = true
	}

	s := &session{cfg: cfg, rep: diag.New(stderr, cfg.Color, cfg.Verbose)}
	if cfg.Path != "" {
		s.rep.Notef("using settings from %s", cfg.Path)
	}
	return s, nil
}

// fail reports err and returns it for the exit status.
func (s *session) fail(err error) error {
	s.rep.Error(err)
	return err
}

func (s *session) check(path string) ([]ir.Stmt, error) {
	unit, err := loader.Load(path)
	if err != nil {
		return nil, s.fail(err)
	}
	s.rep.Notef("loaded %s: %d top-level nodes, %d lines", unit.Name, len(unit.Nodes), unit.Lines.Count()+1)

	c := checker.New(
		checker.WithLines(unit.Lines),
		checker.WithWarnings(func(w checker.Warning) {
			if s.cfg.Warnings != config.WarningsIgnore {
				s.rep.Warning(w.Line, w.Msg)
			}
		}),
	)
	stmts, err := c.Check(unit.Nodes)
	if err != nil {
		return nil, s.fail(err)
	}
	if s.cfg.Warnings == config.WarningsError && s.rep.Count() > 0 {
		return nil, s.fail(fmt.Errorf("%d warning(s) treated as errors", s.rep.Count()))
	}
	s.rep.Notef("checked %s: %d statements", unit.Name, len(stmts))
	return stmts, nil
}

func cmdBuild(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags("build", args, stderr, true)
	if err != nil {
		return err
	}
	s, err := newSession(opts, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return err
	}

	stmts, err := s.check(opts.input)
	if err != nil {
		return err
	}

	gen := codegen.New()
	src, err := gen.Generate(stmts)
	if err != nil {
		return s.fail(err)
	}

	if s.cfg.Output == codegen.Stdout {
		if _, err := gen.WriteTo(stdout); err != nil {
			return s.fail(err)
		}
		return nil
	}
	changed, err := codegen.WriteFile(s.cfg.Output, src)
	if err != nil {
		return s.fail(err)
	}
	if changed {
		s.rep.Notef("wrote %s (%s)", s.cfg.Output, diag.Size(len(src)))
	} else {
		s.rep.Notef("%s is up to date", s.cfg.Output)
	}
	return nil
}

func cmdCheck(args []string, stderr io.Writer) error {
	opts, err := parseFlags("check", args, stderr, false)
	if err != nil {
		return err
	}
	s, err := newSession(opts, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return err
	}
	_, err = s.check(opts.input)
	return err
}

func cmdDump(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags("dump", args, stderr, false)
	if err != nil {
		return err
	}
	unit, err := loader.Load(opts.input)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return err
	}
	fmt.Fprint(stdout, ast.DumpUnit(unit))
	return nil
}
