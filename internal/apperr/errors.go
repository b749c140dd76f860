// Package apperr holds the sentinel errors shared across service boundaries.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrVersionNotFound   = errors.New("version not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidPath       = errors.New("invalid path")
)
