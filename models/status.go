package models

import "fmt"

type ProjectStatus string

const (
	StatusPending  ProjectStatus = "pending"
	StatusApproved ProjectStatus = "approved"
	StatusRejected ProjectStatus = "rejected"
)

var ProjectStatuses = []ProjectStatus{StatusPending, StatusApproved, StatusRejected}

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
)

// transitions lists, per action, the statuses a project may be in when the action is applied.
// Re-approving, re-rejecting and flipping a decision are all accepted for now; tighten this
// table, and only this table, if moderation rules change.
var transitions = map[ModerationAction]struct {
	to   ProjectStatus
	from []ProjectStatus
}{
	ActionApprove: {to: StatusApproved, from: []ProjectStatus{StatusPending, StatusApproved, StatusRejected}},
	ActionReject:  {to: StatusRejected, from: []ProjectStatus{StatusPending, StatusRejected, StatusApproved}},
}

// Transition returns the target status of action and the statuses it may be applied from.
func Transition(action ModerationAction) (to ProjectStatus, from []ProjectStatus, err error) {
	t, ok := transitions[action]
	if !ok {
		return "", nil, fmt.Errorf("unknown moderation action %q", action)
	}
	from = make([]ProjectStatus, len(t.from))
	copy(from, t.from)
	return t.to, from, nil
}
