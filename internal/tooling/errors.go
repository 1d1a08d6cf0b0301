package tooling

// ErrorKind classifies tool failures.
type ErrorKind int

const (
	// NotAvailable means the configured executable is not on PATH.
	NotAvailable ErrorKind = iota + 1
	// UnknownTool means a tool key outside the supported set was requested.
	UnknownTool
	// ExecFailed means the process could not be started or was interrupted.
	ExecFailed
	// NoEntryPoint means no runnable target could be resolved for `run`.
	NoEntryPoint
)

// ToolError is a user-facing tooling failure with remediation hint.
type ToolError struct {
	Kind    ErrorKind
	Message string
	Hint    string
	Err     error
}

func (e *ToolError) Error() string { return e.Message }

func (e *ToolError) Unwrap() error { return e.Err }

// Is matches another *ToolError of the same kind, so callers can test with
// errors.Is(err, &ToolError{Kind: NotAvailable}).
func (e *ToolError) Is(target error) bool {
	t, ok := target.(*ToolError)
	return ok && t.Kind == e.Kind
}
