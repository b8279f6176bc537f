package auth

import (
	"testing"

	"capstone_platform/project_hub/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func testUser(role string, universityId uuid.UUID) schema.User {
	return schema.User{Id: uuid.New(), Role: role, UniversityId: ptr(universityId)}
}

func TestPolicyTenantIsolation(t *testing.T) {
	uniA, uniB := uuid.New(), uuid.New()

	admin := testUser(schema.RoleAdmin, uniB)
	project := &schema.Project{Id: uuid.New(), UniversityId: uniA, Status: schema.ProjectDraft}

	// even an admin is denied outside their university
	assert.False(t, Allow(admin, UpdateProject, Target{Project: project}))

	platformAdmin := schema.User{Id: uuid.New(), Role: schema.RoleAdmin}
	assert.False(t, Allow(platformAdmin, UpdateProject, Target{Project: project}))

	sameTenantAdmin := testUser(schema.RoleAdmin, uniA)
	assert.True(t, Allow(sameTenantAdmin, UpdateProject, Target{Project: project}))
}

func TestPolicySupervisorScope(t *testing.T) {
	uni := uuid.New()

	assigned := testUser(schema.RoleSupervisor, uni)
	other := testUser(schema.RoleSupervisor, uni)

	project := &schema.Project{
		Id:           uuid.New(),
		UniversityId: uni,
		Status:       schema.ProjectSubmitted,
		SupervisorId: ptr(assigned.Id),
	}

	assert.True(t, Allow(assigned, DecideDeliverable, Target{Project: project}))
	assert.True(t, Allow(assigned, DeliverableFeedback, Target{Project: project}))
	assert.False(t, Allow(other, DecideDeliverable, Target{Project: project}))
	assert.False(t, Allow(other, ReadProject, Target{Project: project}))
}

func TestPolicyProjectDecision(t *testing.T) {
	uni := uuid.New()

	preferred := testUser(schema.RoleSupervisor, uni)
	other := testUser(schema.RoleSupervisor, uni)

	project := &schema.Project{
		Id:                    uuid.New(),
		UniversityId:          uni,
		Status:                schema.ProjectSubmitted,
		PreferredSupervisorId: ptr(preferred.Id),
	}

	assert.True(t, Allow(preferred, DecideProject, Target{Project: project}))
	assert.False(t, Allow(other, DecideProject, Target{Project: project}))

	// without a recorded preference any supervisor may review
	project.PreferredSupervisorId = nil
	assert.True(t, Allow(other, DecideProject, Target{Project: project}))

	// once bound, only the bound supervisor decides
	project.SupervisorId = ptr(preferred.Id)
	assert.False(t, Allow(other, DecideProject, Target{Project: project}))
	assert.True(t, Allow(preferred, DecideProject, Target{Project: project}))
}

func TestPolicyLeaderEdits(t *testing.T) {
	uni := uuid.New()

	leader := testUser(schema.RoleStudent, uni)
	member := testUser(schema.RoleStudent, uni)

	project := &schema.Project{
		Id:           uuid.New(),
		UniversityId: uni,
		Status:       schema.ProjectDraft,
		LeaderId:     leader.Id,
	}

	assert.True(t, Allow(leader, UpdateProject, Target{Project: project}))
	assert.True(t, Allow(leader, ManageMembers, Target{Project: project}))
	assert.True(t, Allow(leader, SubmitProject, Target{Project: project}))
	assert.False(t, Allow(member, UpdateProject, Target{Project: project}))

	project.Status = schema.ProjectInProgress
	assert.True(t, Allow(leader, UpdateProject, Target{Project: project}))
	assert.False(t, Allow(leader, SubmitProject, Target{Project: project}))

	// non editable statuses deny leader edits entirely
	for _, status := range []string{
		schema.ProjectSubmitted, schema.ProjectApproved,
		schema.ProjectRejected, schema.ProjectCompleted,
	} {
		project.Status = status
		assert.False(t, Allow(leader, UpdateProject, Target{Project: project}), status)
		assert.False(t, Allow(leader, ManageMembers, Target{Project: project}), status)
	}
}

func TestPolicyTaskActions(t *testing.T) {
	uni := uuid.New()

	leader := testUser(schema.RoleStudent, uni)
	creator := testUser(schema.RoleStudent, uni)
	assignee := testUser(schema.RoleStudent, uni)
	outsider := testUser(schema.RoleStudent, uni)

	project := &schema.Project{
		Id:           uuid.New(),
		UniversityId: uni,
		Status:       schema.ProjectInProgress,
		LeaderId:     leader.Id,
		Memberships: []schema.TeamMembership{
			{UserId: leader.Id, Role: schema.MemberLeader, Status: schema.MembershipActive},
			{UserId: creator.Id, Role: schema.MemberMember, Status: schema.MembershipActive},
			{UserId: assignee.Id, Role: schema.MemberMember, Status: schema.MembershipActive},
		},
	}

	task := &schema.Task{
		Id:         uuid.New(),
		ProjectId:  project.Id,
		CreatorId:  creator.Id,
		AssigneeId: ptr(assignee.Id),
	}

	target := Target{Project: project, Task: task}

	assert.True(t, Allow(leader, CreateTask, target))
	assert.True(t, Allow(leader, AssignTask, target))
	assert.False(t, Allow(creator, AssignTask, target))

	assert.True(t, Allow(creator, UpdateTask, target))
	assert.True(t, Allow(assignee, UpdateTask, target))
	assert.False(t, Allow(outsider, UpdateTask, target))

	assert.True(t, Allow(assignee, UpdateTaskStatus, target))
	assert.False(t, Allow(creator, UpdateTaskStatus, target))
	assert.False(t, Allow(leader, UpdateTaskStatus, target))

	assert.True(t, Allow(creator, ManageTaskDependencies, target))
	assert.False(t, Allow(outsider, ManageTaskDependencies, target))
}

func TestPolicyDeliverableActions(t *testing.T) {
	uni := uuid.New()

	leader := testUser(schema.RoleStudent, uni)
	member := testUser(schema.RoleStudent, uni)
	supervisor := testUser(schema.RoleSupervisor, uni)

	project := &schema.Project{
		Id:           uuid.New(),
		UniversityId: uni,
		Status:       schema.ProjectInProgress,
		LeaderId:     leader.Id,
		SupervisorId: ptr(supervisor.Id),
	}

	target := Target{Project: project}

	assert.True(t, Allow(leader, ManageDeliverable, target))
	assert.True(t, Allow(leader, SubmitDeliverable, target))
	assert.False(t, Allow(member, ManageDeliverable, target))
	assert.False(t, Allow(leader, DecideDeliverable, target))

	assert.True(t, Allow(supervisor, DecideDeliverable, target))
	assert.True(t, Allow(supervisor, DeliverableFeedback, target))
}
