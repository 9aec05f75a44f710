package failure

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a request could not be served.
type Kind string

const (
	KindInvalidInput             Kind = "invalid_input"
	KindUpstream                 Kind = "upstream_failure"
	KindEmptyResult              Kind = "empty_result"
	KindTranscode                Kind = "transcode_failure"
	KindTranscription            Kind = "transcription_failure"
	KindAnswer                   Kind = "answer_failure"
	KindSummarizationUnavailable Kind = "summarization_unavailable"
	KindInternal                 Kind = "internal"
)

// HTTPStatus maps a kind to the status code returned to API callers.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindSummarizationUnavailable:
		// never surfaced as an error response
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Error is a stage-aware failure with an optional upstream status code.
type Error struct {
	Kind    Kind
	Stage   string
	Message string
	Status  int // upstream HTTP status, 0 when not applicable
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a failure without an underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to err.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// InvalidInput is shorthand for the only 4xx kind.
func InvalidInput(msg string) *Error {
	return New(KindInvalidInput, msg)
}

// WithStage returns a copy of the failure tagged with the pipeline stage.
func (e *Error) WithStage(stage string) *Error {
	cp := *e
	cp.Stage = stage
	return &cp
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}

// Detail returns the caller-safe description of err: the failure message,
// without the wrapped cause.
func Detail(err error) string {
	if fe, ok := As(err); ok {
		if fe.Stage != "" {
			return fe.Stage + ": " + fe.Message
		}
		return fe.Message
	}
	return "unknown error"
}
