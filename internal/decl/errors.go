// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decl

import (
	"errors"
	"fmt"

	"github.com/pdiddy/pxdgen/pkg/types"
)

var (
	// ErrParse matches input that is not well-formed JSON.
	ErrParse = errors.New("input is not well-formed JSON")

	// ErrSchema matches well-formed JSON without a declaration list.
	ErrSchema = errors.New("input has no declaration list")

	// ErrMalformed matches a recognized declaration missing a required field.
	ErrMalformed = errors.New("malformed declaration")

	// ErrUnsupported matches a declaration that uses a construct with no
	// .pxd equivalent.
	ErrUnsupported = errors.New("unsupported declaration")
)

// ParseError reports invalid JSON. It matches ErrParse.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing input: %v", e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// SchemaError reports a document whose shape is not a declaration list.
// It matches ErrSchema.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid input schema: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// DeclarationError reports a single declaration that could not be decoded
// or rendered. Err is ErrMalformed or ErrUnsupported.
type DeclarationError struct {
	Index  int
	Kind   types.Kind
	Name   string
	Reason string
	Err    error
}

func (e *DeclarationError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("declaration %d (%s %s): %v: %s", e.Index, e.Kind, name, e.Err, e.Reason)
}

func (e *DeclarationError) Unwrap() error { return e.Err }

// Malformed returns a DeclarationError wrapping ErrMalformed.
func Malformed(index int, kind types.Kind, name, format string, args ...any) *DeclarationError {
	return &DeclarationError{Index: index, Kind: kind, Name: name, Reason: fmt.Sprintf(format, args...), Err: ErrMalformed}
}

// Unsupported returns a DeclarationError wrapping ErrUnsupported.
func Unsupported(index int, kind types.Kind, name, format string, args ...any) *DeclarationError {
	return &DeclarationError{Index: index, Kind: kind, Name: name, Reason: fmt.Sprintf(format, args...), Err: ErrUnsupported}
}
