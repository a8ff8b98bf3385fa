// Package loader reads a JSON report from disk into a models.Node tree.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/j-veylop/commission-tally/internal/logger"
	"github.com/j-veylop/commission-tally/internal/models"
)

var errInvalidUTF8 = errors.New("file is not valid UTF-8 text")

// Load reads the file at path and parses it as a single JSON value.
// A missing path yields *NotFoundError; every other failure yields *ParseError.
func Load(path string) (models.Node, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	data, err := readFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if !utf8.Valid(data) {
		return nil, &ParseError{Path: path, Err: errInvalidUTF8}
	}

	root, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	logger.Debug("loaded report", "path", path, "bytes", len(data))
	return root, nil
}

// readFile reads the whole file and releases the handle on every path.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Warn("failed to close input file", "path", path, "error", closeErr)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return data, nil
}
