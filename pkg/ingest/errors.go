package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectionExhausted means no candidate could decode and parse the input.
	ErrDetectionExhausted = errors.New("no encoding/delimiter candidate could parse the input")
	// ErrEmptyInput is wrapped by IOError for inputs with nothing to parse.
	ErrEmptyInput = errors.New("input is empty")
)

// IOError is a failure to read an input. It is never recovered by fallback.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// WriteError is a failure to serialise a frame.
type WriteError struct {
	Path   string
	Engine string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (engine=%s): %v", e.Path, e.Engine, e.Err)
}
func (e *WriteError) Unwrap() error { return e.Err }

// VerifyError is a failure to read a written file back, or a read-back that
// does not match what was written.
type VerifyError struct {
	Path   string
	Engine string
	Err    error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify %s (engine=%s): %v", e.Path, e.Engine, e.Err)
}
func (e *VerifyError) Unwrap() error { return e.Err }
