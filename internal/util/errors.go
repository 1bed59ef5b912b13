package util

import "errors"

// Sentinel errors shared across the pipeline stages
var (
	// ErrToolMissing indicates a required external binary could not be located or executed.
	// It is the only condition that terminates a whole run.
	ErrToolMissing = errors.New("external tool missing")

	// ErrToolFailed indicates an external tool exited with a non-zero status
	ErrToolFailed = errors.New("external tool failed")

	// ErrTimeout indicates an external tool did not finish within the configured bound
	ErrTimeout = errors.New("external tool timed out")

	// ErrUnsupported indicates a file format is not supported
	ErrUnsupported = errors.New("unsupported")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
