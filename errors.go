package goreadable

import "fmt"

// Kind classifies extraction failures. The first three kinds are verdicts
// about the input, produced by the extraction bundle itself; KindEngine
// marks host-side faults in the embedding layer; KindInvalidInput marks
// arguments rejected before any engine work happens.
type Kind int

const (
	// KindHTMLParse means the input could not be parsed into a document.
	KindHTMLParse Kind = iota + 1
	// KindRuntime means the extraction algorithm faulted while processing
	// a successfully parsed document.
	KindRuntime
	// KindExtraction means the document parsed fine but no readable
	// content qualified.
	KindExtraction
	// KindEngine means the embedding itself misbehaved: the bundle failed
	// to evaluate, the call was interrupted, or its result could not be
	// decoded. Instances that produced it should be discarded.
	KindEngine
	// KindInvalidInput means an argument was rejected before reaching the
	// engine, such as a non-http base URL.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindHTMLParse:
		return "html parse"
	case KindRuntime:
		return "runtime"
	case KindExtraction:
		return "extraction"
	case KindEngine:
		return "engine"
	case KindInvalidInput:
		return "invalid input"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the failure type returned by every operation in this package.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so sentinel comparisons like
// errors.Is(err, ErrExtraction) work regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks against each failure class.
var (
	ErrHTMLParse    = &Error{Kind: KindHTMLParse}
	ErrRuntime      = &Error{Kind: KindRuntime}
	ErrExtraction   = &Error{Kind: KindExtraction}
	ErrEngine       = &Error{Kind: KindEngine}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
)
