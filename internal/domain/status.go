package domain

import (
	"fmt"
	"strings"
)

// Status is a claim's position in the approval lifecycle.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSubmitted  Status = "SUBMITTED"
	StatusReturned   Status = "RETURNED"
	StatusApproved   Status = "APPROVED"
)

// Action names a lifecycle transition.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionReturn  Action = "return"
	ActionApprove Action = "approve"
)

// transitions is the complete table of legal moves. Anything absent is
// rejected with ErrInvalidState. APPROVED has no outgoing edges.
var transitions = map[Status]map[Action]Status{
	StatusInProgress: {ActionSubmit: StatusSubmitted},
	StatusReturned:   {ActionSubmit: StatusSubmitted},
	StatusSubmitted:  {ActionApprove: StatusApproved, ActionReturn: StatusReturned},
}

// ParseStatus accepts the wire names, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusSubmitted, StatusReturned, StatusApproved:
		return true
	}
	return false
}

// Editable reports whether a claim in this status may be edited by its
// claimant. It depends only on the status itself.
func (s Status) Editable() bool {
	return s == StatusInProgress || s == StatusReturned
}

// Terminal reports whether no transition leaves this status.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Next returns the status reached by applying a to s.
func (s Status) Next(a Action) (Status, error) {
	next, ok := transitions[s][a]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a claim that is %s", ErrInvalidState, a, s)
	}
	return next, nil
}
