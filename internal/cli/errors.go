package cli

// usageError is a command-line mistake with a remediation hint.
type usageError struct {
	msg  string
	hint string
}

func (e *usageError) Error() string { return e.msg }
