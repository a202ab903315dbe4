package apperr

import "strconv"

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// UpstreamError is a failed page fetch: a non-200 response or a body
// that could not be decoded. Fatal for the run; retry policy belongs
// to the caller.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg += " (status " + strconv.Itoa(e.StatusCode) + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstream(msg string, status int) *UpstreamError {
	return &UpstreamError{Message: msg, StatusCode: status}
}

func NewUpstreamWrap(msg string, err error) *UpstreamError {
	return &UpstreamError{Message: msg, Err: err}
}

// TunnelError means the bastion was unreachable or rejected the key.
type TunnelError struct {
	Message string
	Err     error
}

func (e *TunnelError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TunnelError) Unwrap() error {
	return e.Err
}

func NewTunnelWrap(msg string, err error) *TunnelError {
	return &TunnelError{Message: msg, Err: err}
}

// ConnectionError means the database refused the connection through an
// otherwise healthy tunnel.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func NewConnectionWrap(msg string, err error) *ConnectionError {
	return &ConnectionError{Message: msg, Err: err}
}

// WriteError is a failed statement or commit; the whole page was
// rolled back and the cursor must not advance.
type WriteError struct {
	Message string
	Err     error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func NewWriteWrap(msg string, err error) *WriteError {
	return &WriteError{Message: msg, Err: err}
}
