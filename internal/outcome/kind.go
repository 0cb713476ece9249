package outcome

// Kind classifies a failure independent of the transport that produced it.
// The set is closed: every failure maps to exactly one Kind.
type Kind int

const (
	Unknown Kind = iota
	Timeout
	NoConnectivity
	ServerError
	Unauthorized
	NotFound
	PayloadTooLarge
	TooManyRequests
	ValidationError
	Serialization
	DiskFull
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{
	Unknown,
	Timeout,
	NoConnectivity,
	ServerError,
	Unauthorized,
	NotFound,
	PayloadTooLarge,
	TooManyRequests,
	ValidationError,
	Serialization,
	DiskFull,
}

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case Timeout:
		return "Timeout"
	case NoConnectivity:
		return "NoConnectivity"
	case ServerError:
		return "ServerError"
	case Unauthorized:
		return "Unauthorized"
	case NotFound:
		return "NotFound"
	case PayloadTooLarge:
		return "PayloadTooLarge"
	case TooManyRequests:
		return "TooManyRequests"
	case ValidationError:
		return "ValidationError"
	case Serialization:
		return "Serialization"
	case DiskFull:
		return "DiskFull"
	default:
		return "Unknown"
	}
}

// Retryable reports whether repeating the same request can reasonably succeed.
// Used by consumers to decide whether to offer a retry affordance.
func (k Kind) Retryable() bool {
	switch k {
	case Timeout, NoConnectivity, ServerError, TooManyRequests:
		return true
	default:
		return false
	}
}
