package studio

import (
	"errors"

	"tracker-studio/internal/processor"
)

type ErrorKind string

const (
	KindNoFileSelected     ErrorKind = "no_file_selected"
	KindConnectionFailed   ErrorKind = "connection_failed"
	KindProcessingFailed   ErrorKind = "processing_failed"
	KindSubmissionInFlight ErrorKind = "submission_in_flight"
)

const (
	MessageNoFileSelected     = "Please select a video file first."
	MessageConnectionFailed   = "Could not connect to the processing server. Is it running?"
	MessageProcessingFailed   = "Error processing video. Check the processing server logs."
	MessageSubmissionInFlight = "A render is already in progress."
)

// Error is the user-facing notice for a failed action. Two Errors match
// under errors.Is when their kinds match.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNoFileSelected     = &Error{Kind: KindNoFileSelected, Message: MessageNoFileSelected}
	ErrSubmissionInFlight = &Error{Kind: KindSubmissionInFlight, Message: MessageSubmissionInFlight}

	ErrSuperseded = errors.New("render superseded by a new file selection")
	ErrNoResult   = errors.New("no render result available")
	ErrClosed     = errors.New("studio controller is closed")
)

// classify maps a failed round trip onto the notice shown to the user.
// Only a response outside 2xx counts as a processing failure; everything
// else means the result never arrived.
func classify(err error) *Error {
	if processor.IsStatus(err) {
		return &Error{Kind: KindProcessingFailed, Message: MessageProcessingFailed, Err: err}
	}
	return &Error{Kind: KindConnectionFailed, Message: MessageConnectionFailed, Err: err}
}
