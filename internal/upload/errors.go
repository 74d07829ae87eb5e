package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when Submit is called outside NotStarted.
	ErrBusy = errors.New("an upload is already in progress")
	// ErrNotCompleted is returned by Details before the upload completed.
	ErrNotCompleted = errors.New("upload has not completed")
	// ErrLimitReached is returned when the plan's document quota is used up.
	ErrLimitReached = errors.New("document limit reached for current plan")
	// ErrAborted is returned when Close ran while the upload was waiting.
	ErrAborted = errors.New("upload was closed before it completed")
)

// ValidationKind names a client-side rejection of an upload.
type ValidationKind string

const (
	WrongFileType ValidationKind = "WrongFileType"
	ContentLength ValidationKind = "ContentLength"
	NoCategory    ValidationKind = "NoCategory"
	ReadFailure   ValidationKind = "ReadFailure"
)

// ValidationError rejects an upload before any request is made. Length is the
// measured content length in characters when known.
type ValidationError struct {
	Kind   ValidationKind
	Length int
	Err    error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case WrongFileType:
		return "only Markdown (.md) files can be uploaded"
	case ContentLength:
		return fmt.Sprintf("document length %d is out of bounds", e.Length)
	case NoCategory:
		return "no category selected"
	case ReadFailure:
		if e.Err != nil {
			return "read document: " + e.Err.Error()
		}
		return "read document"
	default:
		return string(e.Kind)
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError of kind.
func IsValidation(err error, kind ValidationKind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == kind
}
