package models

import "fmt"

type State int

const (
	StatePending State = iota
	StateAcknowledged
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAcknowledged:
		return "acknowledged"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateAcknowledged || s == StateCancelled
}

// Action is a button attached to a posted reminder.
type Action string

const (
	ActionAcknowledge Action = "done"
	ActionCancel      Action = "cancel"
)

// Outcome maps a button to the terminal state it produces.
func (a Action) Outcome() (State, bool) {
	switch a {
	case ActionAcknowledge:
		return StateAcknowledged, true
	case ActionCancel:
		return StateCancelled, true
	}
	return StatePending, false
}

// ReminderActions are the buttons posted under every reminder, in order.
var ReminderActions = []Action{ActionAcknowledge, ActionCancel}
