package document

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument agrupa los fallos atribuibles al archivo subido (se mapean a 400).
var ErrInvalidDocument = errors.New("invalid document")

// ParseError indica que un formato reconocido no pudo leerse.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrInvalidDocument }

// UnsupportedFormatError indica una extension desconocida cuyo contenido no es texto UTF-8.
type UnsupportedFormatError struct {
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Filename)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrInvalidDocument }
