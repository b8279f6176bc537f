package lifecycle

import (
	"errors"
	"testing"

	"capstone_platform/project_hub/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectTransitions(t *testing.T) {
	next, err := Project.Next(schema.ProjectDraft, ProjectSubmit)
	require.NoError(t, err)
	assert.Equal(t, schema.ProjectSubmitted, next)

	next, err = Project.Next(schema.ProjectSubmitted, ProjectApprove)
	require.NoError(t, err)
	assert.Equal(t, schema.ProjectApproved, next)

	next, err = Project.Next(schema.ProjectSubmitted, ProjectReject)
	require.NoError(t, err)
	assert.Equal(t, schema.ProjectRejected, next)

	next, err = Project.Next(schema.ProjectApproved, ProjectBegin)
	require.NoError(t, err)
	assert.Equal(t, schema.ProjectInProgress, next)

	next, err = Project.Next(schema.ProjectInProgress, ProjectComplete)
	require.NoError(t, err)
	assert.Equal(t, schema.ProjectCompleted, next)
}

func TestProjectIllegalTransitions(t *testing.T) {
	cases := []struct {
		from   string
		action Action
	}{
		{schema.ProjectApproved, ProjectApprove},
		{schema.ProjectRejected, ProjectReject},
		{schema.ProjectDraft, ProjectApprove},
		{schema.ProjectSubmitted, ProjectSubmit},
		{schema.ProjectCompleted, ProjectComplete},
		{schema.ProjectDraft, ProjectBegin},
	}

	for _, c := range cases {
		_, err := Project.Next(c.from, c.action)
		require.Error(t, err)

		var illegal *IllegalTransitionError
		require.True(t, errors.As(err, &illegal))
		assert.Equal(t, "project", illegal.Entity)
		assert.Equal(t, c.from, illegal.From)
		assert.Equal(t, c.action, illegal.Action)
	}
}

func TestTaskTransitions(t *testing.T) {
	assert.True(t, Task.Allows(schema.TaskTodo, TaskStart))
	assert.True(t, Task.Allows(schema.TaskTodo, TaskBlock))
	assert.True(t, Task.Allows(schema.TaskInProgress, TaskBlock))
	assert.True(t, Task.Allows(schema.TaskInProgress, TaskComplete))
	assert.True(t, Task.Allows(schema.TaskBlocked, TaskComplete))

	assert.False(t, Task.Allows(schema.TaskInProgress, TaskStart))
	assert.False(t, Task.Allows(schema.TaskCompleted, TaskComplete))
	assert.False(t, Task.Allows(schema.TaskCompleted, TaskBlock))
}

func TestDeliverableTransitions(t *testing.T) {
	next, err := Deliverable.Next(schema.DeliverablePending, DeliverableSubmit)
	require.NoError(t, err)
	assert.Equal(t, schema.DeliverableSubmitted, next)

	next, err = Deliverable.Next(schema.DeliverableRejected, DeliverableReopen)
	require.NoError(t, err)
	assert.Equal(t, schema.DeliverablePending, next)

	// approved is terminal
	assert.False(t, Deliverable.Allows(schema.DeliverableApproved, DeliverableReopen))
	assert.False(t, Deliverable.Allows(schema.DeliverableApproved, DeliverableSubmit))
	assert.False(t, Deliverable.Allows(schema.DeliverableSubmitted, DeliverableSubmit))
}

func TestMembershipTransitions(t *testing.T) {
	assert.True(t, Membership.Allows(schema.MembershipPending, MembershipAccept))
	assert.True(t, Membership.Allows(schema.MembershipPending, MembershipDecline))
	assert.True(t, Membership.Allows(schema.MembershipActive, MembershipRemove))

	assert.False(t, Membership.Allows(schema.MembershipRemoved, MembershipAccept))
	assert.False(t, Membership.Allows(schema.MembershipRejected, MembershipRemove))
	assert.False(t, Membership.Allows(schema.MembershipActive, MembershipAccept))
}
