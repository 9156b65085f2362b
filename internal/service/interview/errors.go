package interview

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrEmptyInput          = errors.New("answer must not be empty")
	ErrInputTooLong        = errors.New("answer exceeds the maximum length")
	ErrInvalidProfile      = errors.New("invalid candidate profile")
	ErrNotInterviewing     = errors.New("session is not accepting answers")
	ErrFeedbackUnavailable = errors.New("feedback is available only after the last answer")
	ErrEmptyReply          = errors.New("interviewer returned an empty reply")
	ErrExternalService     = errors.New("external service error")
)

// ExternalServiceError reports a failed chat completion call. The session
// does not advance; the caller retries by submitting again.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrExternalService, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrExternalService) match any ExternalServiceError.
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalService
}

// ErrorCode maps an error to a stable code used by the HTTP and websocket
// transports.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrInputTooLong):
		return "input_too_long"
	case errors.Is(err, ErrInvalidProfile):
		return "invalid_profile"
	case errors.Is(err, ErrNotInterviewing):
		return "not_interviewing"
	case errors.Is(err, ErrFeedbackUnavailable):
		return "feedback_unavailable"
	case errors.Is(err, ErrExternalService):
		return "external_service"
	default:
		return "internal"
	}
}
