package schema

import "fmt"

const (
	RoleStudent    = "student"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

const (
	ProjectDraft      = "draft"
	ProjectSubmitted  = "submitted"
	ProjectApproved   = "approved"
	ProjectRejected   = "rejected"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
)

const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskBlocked    = "blocked"
	TaskCompleted  = "completed"
)

const (
	DeliverablePending   = "pending"
	DeliverableSubmitted = "submitted"
	DeliverableApproved  = "approved"
	DeliverableRejected  = "rejected"
)

const (
	MemberLeader = "leader"
	MemberMember = "member"
)

const (
	MembershipPending  = "pending"
	MembershipActive   = "active"
	MembershipRejected = "rejected"
	MembershipRemoved  = "removed"
)

// Leader plus at most three additional active members.
const MaxTeamSize = 4

func CheckValidRole(role string) error {
	switch role {
	case RoleStudent, RoleSupervisor, RoleAdmin:
		return nil
	default:
		return fmt.Errorf("invalid role '%v'", role)
	}
}

func CheckValidTaskStatus(status string) error {
	switch status {
	case TaskTodo, TaskInProgress, TaskBlocked, TaskCompleted:
		return nil
	default:
		return fmt.Errorf("invalid task status '%v'", status)
	}
}

// ProjectEditable reports whether leader initiated field/member edits are
// permitted in the given status.
func ProjectEditable(status string) bool {
	return status == ProjectDraft || status == ProjectInProgress
}
