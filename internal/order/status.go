package order

import "errors"

var ErrInvalidTransition = errors.New("invalid order status transition")

var statuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusPreparing: true,
	StatusReady:     true,
	StatusCompleted: true,
	StatusCancelled: true,
}

func ValidStatus(s Status) bool { return statuses[s] }

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, statuses[st]
}

// transitions is the forward-only lifecycle. cancelled is reachable only from
// pending; completed and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
