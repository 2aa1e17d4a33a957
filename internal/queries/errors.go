package queries

import (
	"errors"
	"fmt"

	"command-center-go/internal/types"
)

// Kind sentinels; match with errors.Is(err, ErrRequest) etc.
var (
	ErrDecode  = errors.New("invalid JSON response")
	ErrRequest = errors.New("request failed")
	ErrShape   = errors.New("invalid response format")
)

// Error is returned by Client.Fetch for every failure.
type Error struct {
	Kind    error
	Message string
	// Status is the HTTP status, 0 when no response arrived.
	Status int
	// Body is the parsed error envelope for request errors, nil otherwise.
	Body *types.ErrorBody
	Err  error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("queries api: %s (status %d)", e.Message, e.Status)
	}
	return "queries api: " + e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Permanent reports whether retrying the same request cannot help.
func (e *Error) Permanent() bool {
	return e.Kind == ErrRequest && e.Status >= 400 && e.Status < 500
}
