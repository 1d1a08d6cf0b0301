package scaffold

// LookupKind classifies registry lookup failures.
type LookupKind int

// Lookup failure kinds.
const (
	UnknownProfile LookupKind = iota + 1
	ReservedProfile
	UnknownTemplate
	IncompatibleTemplate
	NoDefaultTemplate
)

// String returns the kind name.
func (k LookupKind) String() string {
	switch k {
	case UnknownProfile:
		return "unknown profile"
	case ReservedProfile:
		return "reserved profile"
	case UnknownTemplate:
		return "unknown template"
	case IncompatibleTemplate:
		return "incompatible template"
	case NoDefaultTemplate:
		return "no default template"
	default:
		return "unknown"
	}
}

// LookupError reports an invalid (profile, template) selection together with
// a remediation hint.
type LookupError struct {
	Kind    LookupKind
	Message string
	Hint    string
}

func (e *LookupError) Error() string { return e.Message }

// Is matches another *LookupError of the same kind, so callers can write
// errors.Is(err, &LookupError{Kind: ReservedProfile}).
func (e *LookupError) Is(target error) bool {
	t, ok := target.(*LookupError)

	return ok && t.Kind == e.Kind
}
