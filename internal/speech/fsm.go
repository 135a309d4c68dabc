package speech

import "fmt"

type State string

type Event string

const (
	StateIdle     State = "idle"
	StateSpeaking State = "speaking"
)

const (
	EventPlay     Event = "play"
	EventStop     Event = "stop"
	EventFinished Event = "finished"
)

// Transition returns the state that follows event. Play always lands in
// speaking (a restart when already speaking) and stop always lands in idle.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateSpeaking:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}

	switch event {
	case EventPlay:
		return StateSpeaking, nil
	case EventStop:
		return StateIdle, nil
	case EventFinished:
		if current == StateSpeaking {
			return StateIdle, nil
		}
		return current, invalidTransition(current, event)
	default:
		return current, invalidTransition(current, event)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
