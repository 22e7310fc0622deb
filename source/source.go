// Package source provides the exclusion list: the raw address strings the
// engine commits to. Load failures wrap ErrLoad so callers can keep serving
// the previous commitment.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrLoad is wrapped by every source failure: unreadable or malformed input.
var ErrLoad = errors.New("exclusion source unavailable")

// Source reads the current exclusion list on demand.
type Source interface {
	Addresses(ctx context.Context) ([]string, error)
}

// File reads a JSON array of address strings from disk on every call, so
// edits to the file are picked up by the next refresh.
type File struct {
	path string
}

var _ Source = (*File)(nil)

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Addresses(_ context.Context) ([]string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrLoad, f.path, err)
	}
	var addresses []string
	if err := json.Unmarshal(b, &addresses); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrLoad, f.path, err)
	}
	return addresses, nil
}

// Static serves a fixed list. Useful for tests and one-shot runs.
type Static []string

var _ Source = Static(nil)

func (s Static) Addresses(_ context.Context) ([]string, error) {
	return s, nil
}
