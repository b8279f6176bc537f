package auth

import (
	"capstone_platform/project_hub/schema"

	"github.com/google/uuid"
)

// Action enumerates every gated operation in the system. Services consult
// Allow exactly once per mutation, there is no other place where role or
// membership checks are made.
type Action string

const (
	ReadProject     Action = "read_project"
	UpdateProject   Action = "update_project"
	ManageMembers   Action = "manage_members"
	SubmitProject   Action = "submit_project"
	DecideProject   Action = "decide_project"
	BeginProject    Action = "begin_project"
	CompleteProject Action = "complete_project"
	DeleteProject   Action = "delete_project"

	CreateTask             Action = "create_task"
	AssignTask             Action = "assign_task"
	UpdateTask             Action = "update_task"
	UpdateTaskStatus       Action = "update_task_status"
	ManageTaskDependencies Action = "manage_task_dependencies"

	ManageDeliverable   Action = "manage_deliverable"
	SubmitDeliverable   Action = "submit_deliverable"
	DecideDeliverable   Action = "decide_deliverable"
	DeliverableFeedback Action = "deliverable_feedback"
)

// Target carries the entities a decision depends on. Project is always
// required. Task is required for task scoped actions. Project.Memberships
// must be preloaded for ReadProject and ManageTaskDependencies decisions.
type Target struct {
	Project *schema.Project
	Task    *schema.Task
}

func isActiveMember(project *schema.Project, userId uuid.UUID) bool {
	for _, m := range project.Memberships {
		if m.UserId == userId && m.Status == schema.MembershipActive {
			return true
		}
	}
	return false
}

func supervisorBound(project *schema.Project, actor schema.User) bool {
	return project.SupervisorId != nil && *project.SupervisorId == actor.Id
}

// Allow is the authorization policy for every mutating operation. Rules are
// evaluated in precedence order, first match wins. It never returns an error
// for business reasons, callers translate a deny into a forbidden failure.
func Allow(actor schema.User, action Action, target Target) bool {
	project := target.Project
	if project == nil {
		return false
	}

	// 1. tenancy: the actor must belong to the target's university. The
	// platform admin carries no university and is denied here on purpose.
	if actor.UniversityId == nil || *actor.UniversityId != project.UniversityId {
		return false
	}

	// 2. university admins may do anything inside their tenant
	if actor.Role == schema.RoleAdmin {
		return true
	}

	// 3. supervisors act only on projects assigned to them, with one
	// exception: an unassigned submitted project may be decided by its
	// recorded preferred supervisor (binding happens at approval), or by
	// any supervisor if no preference was recorded.
	if actor.Role == schema.RoleSupervisor {
		if supervisorBound(project, actor) {
			return true
		}
		if action == DecideProject && project.SupervisorId == nil {
			if project.PreferredSupervisorId != nil {
				return *project.PreferredSupervisorId == actor.Id
			}
			return true
		}
		return false
	}

	isLeader := project.LeaderId == actor.Id

	switch action {
	// 4. detail/member edits require the leader and an editable status
	case UpdateProject, ManageMembers:
		return isLeader && schema.ProjectEditable(project.Status)

	// 5. submission is leader only, from draft only
	case SubmitProject:
		return isLeader && project.Status == schema.ProjectDraft

	case BeginProject, DeleteProject:
		return isLeader

	// 6. task creation and assignment are leader only
	case CreateTask, AssignTask:
		return isLeader

	// 7. task field updates: creator or current assignee
	case UpdateTask:
		if target.Task == nil {
			return false
		}
		if target.Task.CreatorId == actor.Id {
			return true
		}
		return target.Task.AssigneeId != nil && *target.Task.AssigneeId == actor.Id

	// 8. status/completion changes: current assignee only
	case UpdateTaskStatus:
		if target.Task == nil {
			return false
		}
		return target.Task.AssigneeId != nil && *target.Task.AssigneeId == actor.Id

	case ManageTaskDependencies:
		return isLeader || isActiveMember(project, actor.Id)

	// 9. deliverable create/update/delete/submit are leader only
	case ManageDeliverable, SubmitDeliverable:
		return isLeader

	case ReadProject:
		return isLeader || isActiveMember(project, actor.Id)
	}

	// 10. decide/feedback on deliverables and project completion belong to
	// the assigned supervisor and were handled above. 11. default deny.
	return false
}
