package relay

// State is the relay lifecycle stage.
type State int32

const (
	StateStarting State = iota
	StateIdle
	StateShowingPopup
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateIdle:
		return "idle"
	case StateShowingPopup:
		return "showing_popup"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}
