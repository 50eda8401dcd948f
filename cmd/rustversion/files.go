package main

import (
	"bytes"
	"errors"
	"io"
	"os"
)

const stdinName = "-"

// readInput reads path, or standard input when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == stdinName {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// writeBack replaces the contents of path, keeping its permissions. An
// unchanged file is not rewritten.
func writeBack(path string, old, content []byte) error {
	if path == stdinName {
		return errors.New("cannot write result back to standard input")
	}
	if bytes.Equal(old, content) {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, info.Mode().Perm())
}
