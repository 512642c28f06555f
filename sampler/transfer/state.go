package transfer

// State is the transfer descriptor lifecycle.
type State uint8

const (
	StateIdle State = iota
	StateArmed
	StateInFlight
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateArmed:
		return "ARMED"
	case StateInFlight:
		return "IN_FLIGHT"
	case StateComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateArmed
	case StateArmed:
		return to == StateInFlight
	case StateInFlight:
		return to == StateComplete
	case StateComplete:
		return to == StateArmed
	default:
		return false
	}
}
