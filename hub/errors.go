// Package hub holds the types shared across every other package: the
// error kind enum, the debug ring, build-time configuration, and the
// hub context that wires C1-C8 together.
package hub

// ErrorKind is the closed set of error categories every component in
// the core classifies its failures into (spec §7).
type ErrorKind uint8

const (
	// ErrNone indicates success; zero value so a zeroed Error is "ok".
	ErrNone ErrorKind = iota
	// ErrAgain is a transient failure: retry on the next poll.
	ErrAgain
	// ErrTimedOut means a UART/SPI transfer exceeded its budget.
	ErrTimedOut
	// ErrInvalidArgument is rejected input at an API boundary.
	ErrInvalidArgument
	// ErrNoDevice means the port has no attached device, or it reset.
	ErrNoDevice
	// ErrBusy means the resource is occupied by another operation.
	ErrBusy
	// ErrFailed is an unspecified hardware or protocol failure.
	ErrFailed
	// ErrCanceled means the operation was explicitly cancelled.
	ErrCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "ok"
	case ErrAgain:
		return "again"
	case ErrTimedOut:
		return "timed_out"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrNoDevice:
		return "no_device"
	case ErrBusy:
		return "busy"
	case ErrFailed:
		return "failed"
	case ErrCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error wraps an ErrorKind with an optional human-readable detail,
// matching how core/command.go in the teacher attaches a message to a
// sentinel-style failure instead of defining one error type per site.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

// NewError constructs an *Error for the given kind and detail.
func NewError(kind ErrorKind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// KindOf extracts the ErrorKind from err, defaulting to ErrFailed for
// any error that did not originate in this package.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrNone
	}
	if he, ok := err.(*Error); ok {
		return he.Kind
	}
	return ErrFailed
}

var (
	// ErrAgainSentinel is a ready-made instance for the common
	// "not ready yet, retry" case so callers don't allocate.
	ErrAgainSentinel   = NewError(ErrAgain, "")
	ErrTimedOutSentinel = NewError(ErrTimedOut, "")
	ErrBusySentinel    = NewError(ErrBusy, "")
	ErrNoDeviceSentinel = NewError(ErrNoDevice, "")
)
