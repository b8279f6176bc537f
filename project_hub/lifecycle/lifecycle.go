// Package lifecycle defines the state machines for projects, tasks,
// deliverables, and team memberships. Every status change in the services
// goes through one of these tables, services never compare statuses ad hoc
// to decide whether a transition is legal.
package lifecycle

import (
	"fmt"

	"capstone_platform/project_hub/schema"
)

type Action string

const (
	// project
	ProjectSubmit   Action = "submit"
	ProjectApprove  Action = "approve"
	ProjectReject   Action = "reject"
	ProjectBegin    Action = "begin"
	ProjectComplete Action = "complete"

	// task
	TaskStart    Action = "start"
	TaskBlock    Action = "block"
	TaskComplete Action = "complete"

	// deliverable
	DeliverableSubmit  Action = "submit"
	DeliverableApprove Action = "approve"
	DeliverableReject  Action = "reject"
	DeliverableReopen  Action = "reopen"

	// membership
	MembershipInvite  Action = "invite"
	MembershipAccept  Action = "accept"
	MembershipDecline Action = "decline"
	MembershipRemove  Action = "remove"
)

type IllegalTransitionError struct {
	Entity string
	From   string
	Action Action
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%v in status '%v' does not permit action '%v'", e.Entity, e.From, e.Action)
}

// Machine maps action -> set of (current status -> next status) rules.
type Machine struct {
	entity string
	table  map[Action]map[string]string
}

// Next returns the status the entity moves to when action is applied in
// status from, or an IllegalTransitionError if the table has no such edge.
func (m *Machine) Next(from string, action Action) (string, error) {
	rules, ok := m.table[action]
	if !ok {
		return "", &IllegalTransitionError{Entity: m.entity, From: from, Action: action}
	}
	next, ok := rules[from]
	if !ok {
		return "", &IllegalTransitionError{Entity: m.entity, From: from, Action: action}
	}
	return next, nil
}

// Allows reports whether action is legal in status from.
func (m *Machine) Allows(from string, action Action) bool {
	_, err := m.Next(from, action)
	return err == nil
}

var Project = &Machine{
	entity: "project",
	table: map[Action]map[string]string{
		ProjectSubmit: {
			schema.ProjectDraft: schema.ProjectSubmitted,
		},
		ProjectApprove: {
			schema.ProjectSubmitted: schema.ProjectApproved,
		},
		ProjectReject: {
			schema.ProjectSubmitted: schema.ProjectRejected,
		},
		ProjectBegin: {
			schema.ProjectApproved: schema.ProjectInProgress,
		},
		ProjectComplete: {
			schema.ProjectInProgress: schema.ProjectCompleted,
		},
	},
}

var Task = &Machine{
	entity: "task",
	table: map[Action]map[string]string{
		TaskStart: {
			schema.TaskTodo: schema.TaskInProgress,
		},
		TaskBlock: {
			schema.TaskTodo:       schema.TaskBlocked,
			schema.TaskInProgress: schema.TaskBlocked,
		},
		TaskComplete: {
			schema.TaskTodo:       schema.TaskCompleted,
			schema.TaskInProgress: schema.TaskCompleted,
			schema.TaskBlocked:    schema.TaskCompleted,
		},
	},
}

var Deliverable = &Machine{
	entity: "deliverable",
	table: map[Action]map[string]string{
		DeliverableSubmit: {
			schema.DeliverablePending: schema.DeliverableSubmitted,
		},
		DeliverableApprove: {
			schema.DeliverableSubmitted: schema.DeliverableApproved,
		},
		DeliverableReject: {
			schema.DeliverableSubmitted: schema.DeliverableRejected,
		},
		DeliverableReopen: {
			schema.DeliverableRejected: schema.DeliverablePending,
		},
	},
}

var Membership = &Machine{
	entity: "membership",
	table: map[Action]map[string]string{
		// re-inviting a rejected or removed member restarts the handshake
		MembershipInvite: {
			schema.MembershipRejected: schema.MembershipPending,
			schema.MembershipRemoved:  schema.MembershipPending,
		},
		MembershipAccept: {
			schema.MembershipPending: schema.MembershipActive,
		},
		MembershipDecline: {
			schema.MembershipPending: schema.MembershipRejected,
		},
		MembershipRemove: {
			schema.MembershipActive: schema.MembershipRemoved,
		},
	},
}
