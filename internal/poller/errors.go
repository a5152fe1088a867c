package poller

import "fmt"

// ErrorKind classifies why a poll failed.
type ErrorKind int

const (
	// KindNetwork is a transport failure: connection refused, DNS, timeout.
	KindNetwork ErrorKind = iota + 1

	// KindHTTPStatus is a completed request with a non-2xx status code.
	KindHTTPStatus

	// KindDecode is a body that is not JSON or lacks a well-formed votes field.
	KindDecode

	// KindRender is a snapshot the display surface could not hold.
	KindRender
)

// String returns the kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindDecode:
		return "decode"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// PollError is a poll failure tagged with its [ErrorKind].
//
// PollError wraps the underlying cause, so [errors.Is] and [errors.As] see
// through it. Comparing against one of the sentinel values ([ErrNetwork],
// [ErrHTTPStatus], [ErrDecode], [ErrRender]) with errors.Is matches by kind.
type PollError struct {
	Kind ErrorKind

	// StatusCode is the HTTP status for KindHTTPStatus, zero otherwise.
	StatusCode int

	// Status is the status line text for KindHTTPStatus.
	Status string

	Err error
}

// Sentinel errors for matching by kind with errors.Is.
var (
	ErrNetwork    = &PollError{Kind: KindNetwork}
	ErrHTTPStatus = &PollError{Kind: KindHTTPStatus}
	ErrDecode     = &PollError{Kind: KindDecode}
	ErrRender     = &PollError{Kind: KindRender}
)

func (e *PollError) Error() string {
	switch {
	case e.Kind == KindHTTPStatus && e.Err == nil:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Status)
	case e.Err == nil:
		return fmt.Sprintf("%s error", e.Kind)
	default:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *PollError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *PollError) Is(target error) bool {
	t, ok := target.(*PollError)
	if !ok {
		return false
	}
	return t.Err == nil && t.StatusCode == 0 && t.Kind == e.Kind
}

func networkError(err error) *PollError {
	return &PollError{Kind: KindNetwork, Err: err}
}

func statusError(code int, status string) *PollError {
	if status == "" {
		status = fmt.Sprintf("%d", code)
	}
	return &PollError{Kind: KindHTTPStatus, StatusCode: code, Status: status}
}

func decodeError(err error) *PollError {
	return &PollError{Kind: KindDecode, Err: err}
}

func renderError(err error) *PollError {
	return &PollError{Kind: KindRender, Err: err}
}
