package category

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCategory is returned for ids absent from the known collection.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidToken is returned for unknown, used or cancelled delete tokens.
	ErrInvalidToken = errors.New("invalid or expired confirmation token")
	// ErrInputClosed is returned when submitting a closed name input.
	ErrInputClosed = errors.New("category name input is not open")
)

// ValidationKind names a client-side precondition failure.
type ValidationKind string

const (
	EmptyName     ValidationKind = "EmptyName"
	DuplicateName ValidationKind = "DuplicateName"
)

// ValidationError is a precondition failure detected before any network call.
type ValidationError struct {
	Kind ValidationKind
	Name string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyName:
		return "category name is empty"
	case DuplicateName:
		return fmt.Sprintf("category %q already exists", e.Name)
	default:
		return string(e.Kind)
	}
}

// RemoteError wraps a failure of the repository (network or server).
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *RemoteError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError of kind.
func IsValidation(err error, kind ValidationKind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == kind
}

var errRenameUnsupported = errors.New("repository does not support rename")
