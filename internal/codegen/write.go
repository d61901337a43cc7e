package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Stdout is the output path that selects standard output.
const Stdout = "-"

// WriteFile writes src to the file at path. Standard output is the caller's
// concern; Stdout and the empty path are rejected. An existing file with
// identical contents is left untouched so build tools watching its mtime do
// not rebuild. It reports whether anything was written.
func WriteFile(path string, src []byte) (bool, error) {
	if path == "" || path == Stdout {
		return false, fmt.Errorf("write: %q is not a file path", path)
	}
	same, err := sameContents(path, src)
	if err != nil {
		return false, err
	}
	if same {
		return false, nil
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".falafel-*")
	if err != nil {
		return false, err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(src); err != nil {
		f.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return false, err
	}
	return true, nil
}

// sameContents compares BLAKE2b-256 digests of the file at path and src.
// A missing file never matches.
func sameContents(path string, src []byte) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	want := blake2b.Sum256(src)
	return bytes.Equal(h.Sum(nil), want[:]), nil
}
