package gateway

import "fmt"

// ParseError reports a malformed request mapping.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// UnsupportedBackendError reports a database type the gateway does not
// serve. Kind carries the caller's value verbatim.
type UnsupportedBackendError struct {
	Kind string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported database type: %s", e.Kind)
}

// UnavailableError reports a backend that is compiled in but disabled
// by configuration.
type UnavailableError struct {
	Backend Backend
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s backend not available or not enabled", e.Backend)
}

// UnsupportedOperationError reports an operation a backend does not
// implement.
type UnsupportedOperationError struct {
	Backend   Backend
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported %s operation: %s", e.Backend, e.Operation)
}

// ExecError wraps a driver-level failure with the backend it came from.
type ExecError struct {
	Backend Backend
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s execution failed: %v", e.Backend, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

func execErr(backend Backend, err error) error {
	return &ExecError{Backend: backend, Err: err}
}
