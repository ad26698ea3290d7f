package logincodec

// ConnState is the per-connection handshake/session state. It is
// monotonic aside from the terminal LoggedOut, which can be reached from
// any state.
type ConnState int

const (
	Registered ConnState = iota
	InitialRequest
	InitialResponse
	FinalResponse
	LoggedIn
	LoggedOut
)

func (s ConnState) String() string {
	switch s {
	case Registered:
		return "REGISTERED"
	case InitialRequest:
		return "INITIAL_REQUEST"
	case InitialResponse:
		return "INITIAL_RESPONSE"
	case FinalResponse:
		return "FINAL_RESPONSE"
	case LoggedIn:
		return "LOGGED_IN"
	case LoggedOut:
		return "LOGGED_OUT"
	default:
		return "UNKNOWN"
	}
}
