package errors

// Package errors provides sentinel errors for source discovery operations.
// These enable consistent classification of discovery and read failures.

import "errors"

var (
	// ErrDirWalkFailed indicates filesystem traversal of the input root failed.
	ErrDirWalkFailed = errors.New("input directory walk failed")

	// ErrFileReadFailed indicates reading content from a discovered file failed.
	ErrFileReadFailed = errors.New("source file read failed")

	// ErrInvalidRelativePath indicates calculating a path relative to the input root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")
)
