package diag_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"falafel/internal/config"
	"falafel/internal/diag"
)

func TestPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := diag.New(&buf, config.ColorAuto, false)

	r.Error(errors.New("line 3: unrecognized identifier x"))
	r.Warning(7, "empty loop")
	r.Warning(0, "empty if statement")
	r.Notef("hidden %d", 1)

	be.Equal(t, buf.String(),
		"error: line 3: unrecognized identifier x\n"+
			"warning: line 7: empty loop\n"+
			"warning: empty if statement\n")
	be.Equal(t, r.Count(), 2)
	be.Equal(t, r.Errors(), 1)
}

func TestVerboseNotes(t *testing.T) {
	var buf bytes.Buffer
	r := diag.New(&buf, config.ColorNever, true)
	r.Notef("wrote %s", diag.Size(1500))
	be.Equal(t, buf.String(), "note: wrote 1.5 kB\n")
}

func TestForcedColor(t *testing.T) {
	var buf bytes.Buffer
	r := diag.New(&buf, config.ColorAlways, false)
	r.Warning(1, "extraneous else block")
	be.Equal(t, buf.String(), "\x1b[1;33mwarning:\x1b[0m line 1: extraneous else block\n")
}
