package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"capstone_platform/project_hub/auth"
	"capstone_platform/project_hub/lifecycle"
	"capstone_platform/project_hub/notify"
	"capstone_platform/project_hub/schema"
	"capstone_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const minDescriptionLen = 50

type ProjectService struct {
	db         *gorm.DB
	userAuth   auth.IdentityProvider
	dispatcher notify.Dispatcher
}

func (s *ProjectService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Post("/create", s.CreateProject)
	r.Get("/list", s.List)

	r.Route("/{project_id}", func(r chi.Router) {
		r.Get("/", s.ProjectInfo)
		r.Post("/update", s.UpdateProject)
		r.Delete("/", s.DeleteProject)

		r.Post("/submit", s.Submit)
		r.Post("/decision", s.Decide)
		r.Post("/begin", s.Begin)
		r.Post("/complete", s.Complete)
	})

	return r
}

type createProjectRequest struct {
	Title         string `json:"title"`
	TitleAr       string `json:"title_ar"`
	Description   string `json:"description"`
	DescriptionAr string `json:"description_ar"`

	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`

	PreferredSupervisorId *uuid.UUID  `json:"preferred_supervisor_id"`
	MemberIds             []uuid.UUID `json:"member_ids"`

	SaveAsDraft bool `json:"save_as_draft"`
}

type createProjectResponse struct {
	ProjectId uuid.UUID `json:"project_id"`
}

// submissionReady holds the readiness rules checked when a project leaves
// draft: non empty title, a substantial description, and both dates.
func submissionReady(project *schema.Project) error {
	if project.Title == "" {
		return validationError("project title must not be empty")
	}
	if utf8.RuneCountInString(project.Description) < minDescriptionLen {
		return validationError("project description must be at least %v characters", minDescriptionLen)
	}
	if project.StartDate == nil || project.DueDate == nil {
		return validationError("project start and due dates must be set")
	}
	if project.DueDate.Before(*project.StartDate) {
		return validationError("project due date precedes start date")
	}
	return nil
}

func (s *ProjectService) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params createProjectRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if actor.Role != schema.RoleStudent || actor.UniversityId == nil {
		http.Error(w, "only students can create projects", http.StatusForbidden)
		return
	}

	if len(params.MemberIds) > schema.MaxTeamSize-1 {
		http.Error(w, fmt.Sprintf("a project may have at most %v members beyond the leader", schema.MaxTeamSize-1), http.StatusUnprocessableEntity)
		return
	}

	project := schema.Project{
		Id:            uuid.New(),
		Title:         params.Title,
		TitleAr:       params.TitleAr,
		Description:   params.Description,
		DescriptionAr: params.DescriptionAr,
		Status:        schema.ProjectDraft,
		LeaderId:      actor.Id,
		UniversityId:  *actor.UniversityId,
		StartDate:     params.StartDate,
		DueDate:       params.DueDate,
	}

	var notifyUsers []uuid.UUID

	err = s.db.Transaction(func(txn *gorm.DB) error {
		_, err := schema.GetActiveMembership(actor.Id, txn)
		if err == nil {
			return CodedError(errors.New("user already has an active project"), http.StatusConflict)
		}
		if !errors.Is(err, schema.ErrMembershipNotFound) {
			return CodedError(err, http.StatusInternalServerError)
		}

		memberships := []schema.TeamMembership{{
			ProjectId: project.Id,
			UserId:    actor.Id,
			Role:      schema.MemberLeader,
			Status:    schema.MembershipActive,
			JoinedAt:  time.Now().UTC(),
		}}

		seen := map[uuid.UUID]bool{}
		for _, memberId := range params.MemberIds {
			if memberId == actor.Id {
				return validationError("leader cannot be listed as an additional member")
			}
			if seen[memberId] {
				return CodedError(fmt.Errorf("user %v is listed more than once", memberId), http.StatusConflict)
			}
			seen[memberId] = true
			if _, err := validateProposedMember(txn, memberId, project.UniversityId); err != nil {
				return err
			}
			memberships = append(memberships, schema.TeamMembership{
				ProjectId: project.Id,
				UserId:    memberId,
				Role:      schema.MemberMember,
				Status:    schema.MembershipActive,
				JoinedAt:  time.Now().UTC(),
			})
			notifyUsers = append(notifyUsers, memberId)
		}

		if params.PreferredSupervisorId != nil {
			if err := s.checkSupervisorCandidate(txn, *params.PreferredSupervisorId, project.UniversityId); err != nil {
				return err
			}
			project.PreferredSupervisorId = params.PreferredSupervisorId
		}

		if !params.SaveAsDraft {
			if err := submissionReady(&project); err != nil {
				return err
			}
			next, err := lifecycle.Project.Next(project.Status, lifecycle.ProjectSubmit)
			if err != nil {
				return transitionConflict(err)
			}
			project.Status = next
		}

		if result := txn.Create(&project); result.Error != nil {
			slog.Error("sql error creating new project", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		if result := txn.Create(&memberships); result.Error != nil {
			slog.Error("sql error creating project memberships", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("project created", "project_id", project.Id, "leader_id", actor.Id, "status", project.Status)

	if project.Status == schema.ProjectSubmitted {
		s.notifySubmission(&project, notifyUsers)
	}

	utils.WriteJsonResponse(w, createProjectResponse{ProjectId: project.Id})
}

func (s *ProjectService) checkSupervisorCandidate(txn *gorm.DB, supervisorId, universityId uuid.UUID) error {
	supervisor, err := schema.GetUser(supervisorId, txn)
	if err != nil {
		return notFoundOrInternal(err, schema.ErrUserNotFound)
	}
	if supervisor.Role != schema.RoleSupervisor && supervisor.Role != schema.RoleAdmin {
		return validationError("user %v cannot supervise projects", supervisorId)
	}
	if supervisor.UniversityId == nil || *supervisor.UniversityId != universityId {
		return validationError("supervisor %v belongs to a different university", supervisorId)
	}
	return nil
}

func (s *ProjectService) notifySubmission(project *schema.Project, memberIds []uuid.UUID) {
	body := fmt.Sprintf("project '%v' was submitted for review", project.Title)
	if project.PreferredSupervisorId != nil {
		s.dispatcher.Notify(*project.PreferredSupervisorId, "Project submitted", body, notify.KindProjectSubmitted)
	}
	for _, memberId := range memberIds {
		s.dispatcher.Notify(memberId, "Project submitted", body, notify.KindProjectSubmitted)
	}
}

func (s *ProjectService) Submit(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var project schema.Project
	var notifyUsers []uuid.UUID

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err = schema.GetProject(projectId, txn, false, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}

		if !auth.Allow(actor, auth.SubmitProject, auth.Target{Project: &project}) {
			return errForbidden()
		}

		if err := submissionReady(&project); err != nil {
			return err
		}

		next, err := lifecycle.Project.Next(project.Status, lifecycle.ProjectSubmit)
		if err != nil {
			return transitionConflict(err)
		}

		members, err := activeProjectMembers(txn, project.Id)
		if err != nil {
			return err
		}
		for _, member := range members {
			if member.UserId != actor.Id {
				notifyUsers = append(notifyUsers, member.UserId)
			}
		}

		result := txn.Model(&schema.Project{Id: project.Id}).Update("status", next)
		if result.Error != nil {
			slog.Error("sql error submitting project", "project_id", project.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		project.Status = next

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error submitting project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("project submitted", "project_id", project.Id, "leader_id", actor.Id)

	s.notifySubmission(&project, notifyUsers)

	utils.WriteSuccess(w)
}

type projectDecisionRequest struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback"`
}

func (s *ProjectService) Decide(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params projectDecisionRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	action := lifecycle.ProjectReject
	if params.Approve {
		action = lifecycle.ProjectApprove
	}

	var project schema.Project
	var notifyUsers []uuid.UUID

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err = schema.GetProject(projectId, txn, false, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}

		if !auth.Allow(actor, auth.DecideProject, auth.Target{Project: &project}) {
			return errForbidden()
		}

		next, err := lifecycle.Project.Next(project.Status, action)
		if err != nil {
			return transitionConflict(err)
		}

		updates := map[string]interface{}{"status": next}
		if params.Approve {
			// approval binds the reviewing supervisor to the project
			updates["supervisor_id"] = actor.Id
		}

		result := txn.Model(&schema.Project{Id: project.Id}).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error recording project decision", "project_id", project.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		project.Status = next

		members, err := activeProjectMembers(txn, project.Id)
		if err != nil {
			return err
		}
		for _, member := range members {
			notifyUsers = append(notifyUsers, member.UserId)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error recording project decision: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("project decision recorded", "project_id", project.Id, "status", project.Status, "reviewer_id", actor.Id)
	projectTransitions.WithLabelValues(project.Status).Inc()

	body := fmt.Sprintf("project '%v' was %v", project.Title, project.Status)
	if params.Feedback != "" {
		body = fmt.Sprintf("%v: %v", body, params.Feedback)
	}
	for _, userId := range notifyUsers {
		s.dispatcher.Notify(userId, "Project reviewed", body, notify.KindProjectDecided)
	}

	utils.WriteSuccess(w)
}

func (s *ProjectService) Begin(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, lifecycle.ProjectBegin, auth.BeginProject)
}

func (s *ProjectService) Complete(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, lifecycle.ProjectComplete, auth.CompleteProject)
}

func (s *ProjectService) advance(w http.ResponseWriter, r *http.Request, action lifecycle.Action, gate auth.Action) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var status string

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(projectId, txn, false, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}

		if !auth.Allow(actor, gate, auth.Target{Project: &project}) {
			return errForbidden()
		}

		next, err := lifecycle.Project.Next(project.Status, action)
		if err != nil {
			return transitionConflict(err)
		}

		updates := map[string]interface{}{"status": next}
		if next == schema.ProjectCompleted {
			updates["completion_date"] = time.Now().UTC()
		}

		result := txn.Model(&schema.Project{Id: project.Id}).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error advancing project", "project_id", project.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		status = next

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error advancing project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("project advanced", "project_id", projectId, "status", status, "actor_id", actor.Id)
	projectTransitions.WithLabelValues(status).Inc()

	utils.WriteSuccess(w)
}

type updateProjectRequest struct {
	Title         *string `json:"title"`
	TitleAr       *string `json:"title_ar"`
	Description   *string `json:"description"`
	DescriptionAr *string `json:"description_ar"`

	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`

	// Full replacement of the non leader member set, draft only.
	MemberIds *[]uuid.UUID `json:"member_ids"`
}

func (s *ProjectService) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateProjectRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(projectId, txn, false, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}

		gate := auth.UpdateProject
		if params.MemberIds != nil {
			gate = auth.ManageMembers
		}
		if !auth.Allow(actor, gate, auth.Target{Project: &project}) {
			return errForbidden()
		}

		updates := map[string]interface{}{}
		if params.Title != nil {
			updates["title"] = *params.Title
		}
		if params.TitleAr != nil {
			updates["title_ar"] = *params.TitleAr
		}
		if params.Description != nil {
			updates["description"] = *params.Description
		}
		if params.DescriptionAr != nil {
			updates["description_ar"] = *params.DescriptionAr
		}
		if params.StartDate != nil || params.DueDate != nil {
			start, due := project.StartDate, project.DueDate
			if params.StartDate != nil {
				start = params.StartDate
			}
			if params.DueDate != nil {
				due = params.DueDate
			}
			if start != nil && due != nil && due.Before(*start) {
				return validationError("project due date precedes start date")
			}
		}
		if params.StartDate != nil {
			updates["start_date"] = *params.StartDate
		}
		if params.DueDate != nil {
			updates["due_date"] = *params.DueDate
		}

		if len(updates) > 0 {
			result := txn.Model(&schema.Project{Id: project.Id}).Updates(updates)
			if result.Error != nil {
				slog.Error("sql error updating project", "project_id", project.Id, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		if params.MemberIds != nil {
			if err := s.replaceMembers(txn, &project, *params.MemberIds); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating project: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *ProjectService) replaceMembers(txn *gorm.DB, project *schema.Project, memberIds []uuid.UUID) error {
	if project.Status != schema.ProjectDraft {
		return CodedError(errors.New("team members can only be replaced while the project is a draft"), http.StatusConflict)
	}

	if len(memberIds) > schema.MaxTeamSize-1 {
		return validationError("a project may have at most %v members beyond the leader", schema.MaxTeamSize-1)
	}

	result := txn.Where("project_id = ? and user_id <> ?", project.Id, project.LeaderId).Delete(&schema.TeamMembership{})
	if result.Error != nil {
		slog.Error("sql error removing project memberships", "project_id", project.Id, "error", result.Error)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}

	seen := map[uuid.UUID]bool{}
	for _, memberId := range memberIds {
		if memberId == project.LeaderId {
			return validationError("leader cannot be listed as an additional member")
		}
		if seen[memberId] {
			return CodedError(fmt.Errorf("user %v is listed more than once", memberId), http.StatusConflict)
		}
		seen[memberId] = true
		if _, err := validateProposedMember(txn, memberId, project.UniversityId); err != nil {
			return err
		}
		membership := schema.TeamMembership{
			ProjectId: project.Id,
			UserId:    memberId,
			Role:      schema.MemberMember,
			Status:    schema.MembershipActive,
			JoinedAt:  time.Now().UTC(),
		}
		if result := txn.Create(&membership); result.Error != nil {
			slog.Error("sql error creating project membership", "project_id", project.Id, "user_id", memberId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
	}

	return nil
}

func (s *ProjectService) DeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(projectId, txn, false, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}

		if !auth.Allow(actor, auth.DeleteProject, auth.Target{Project: &project}) {
			return errForbidden()
		}

		// a project owns its tasks, deliverables, and memberships
		var taskIds []uuid.UUID
		if err := txn.Model(&schema.Task{}).Where("project_id = ?", project.Id).Pluck("id", &taskIds).Error; err != nil {
			slog.Error("sql error listing project tasks for delete", "project_id", project.Id, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		deletes := []interface{}{
			txn.Where("task_id IN ? or dependency_id IN ?", taskIds, taskIds).Delete(&schema.TaskDependency{}),
			txn.Where("project_id = ?", project.Id).Delete(&schema.Task{}),
			txn.Where("project_id = ?", project.Id).Delete(&schema.Deliverable{}),
			txn.Where("project_id = ?", project.Id).Delete(&schema.TeamMembership{}),
			txn.Delete(&schema.Project{Id: project.Id}),
		}
		for _, result := range deletes {
			if err := result.(*gorm.DB).Error; err != nil {
				slog.Error("sql error deleting project", "project_id", project.Id, "error", err)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("project deleted", "project_id", projectId, "actor_id", actor.Id)

	utils.WriteSuccess(w)
}

type MemberInfo struct {
	UserId   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
}

type ProjectInfo struct {
	ProjectId uuid.UUID `json:"project_id"`

	Title         string `json:"title"`
	TitleAr       string `json:"title_ar"`
	Description   string `json:"description"`
	DescriptionAr string `json:"description_ar"`

	Status string `json:"status"`

	LeaderId              uuid.UUID  `json:"leader_id"`
	SupervisorId          *uuid.UUID `json:"supervisor_id"`
	PreferredSupervisorId *uuid.UUID `json:"preferred_supervisor_id"`

	StartDate      *time.Time `json:"start_date"`
	DueDate        *time.Time `json:"due_date"`
	CompletionDate *time.Time `json:"completion_date"`

	Members []MemberInfo `json:"members"`

	// completed tasks / total tasks, recomputed on demand
	Progress int `json:"progress"`
}

func projectProgress(txn *gorm.DB, projectId uuid.UUID) (int, error) {
	var total, completed int64

	result := txn.Model(&schema.Task{}).Where("project_id = ?", projectId).Count(&total)
	if result.Error != nil {
		slog.Error("sql error counting project tasks", "project_id", projectId, "error", result.Error)
		return 0, CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	if total == 0 {
		return 0, nil
	}

	result = txn.Model(&schema.Task{}).Where("project_id = ? and status = ?", projectId, schema.TaskCompleted).Count(&completed)
	if result.Error != nil {
		slog.Error("sql error counting completed tasks", "project_id", projectId, "error", result.Error)
		return 0, CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}

	return int(completed * 100 / total), nil
}

func convertToProjectInfo(project *schema.Project, txn *gorm.DB) (ProjectInfo, error) {
	progress, err := projectProgress(txn, project.Id)
	if err != nil {
		return ProjectInfo{}, err
	}

	members := make([]MemberInfo, 0, len(project.Memberships))
	for _, m := range project.Memberships {
		info := MemberInfo{UserId: m.UserId, Role: m.Role, Status: m.Status}
		if m.User != nil {
			info.Username = m.User.Username
		}
		members = append(members, info)
	}

	return ProjectInfo{
		ProjectId:             project.Id,
		Title:                 project.Title,
		TitleAr:               project.TitleAr,
		Description:           project.Description,
		DescriptionAr:         project.DescriptionAr,
		Status:                project.Status,
		LeaderId:              project.LeaderId,
		SupervisorId:          project.SupervisorId,
		PreferredSupervisorId: project.PreferredSupervisorId,
		StartDate:             project.StartDate,
		DueDate:               project.DueDate,
		CompletionDate:        project.CompletionDate,
		Members:               members,
		Progress:              progress,
	}, nil
}

func (s *ProjectService) ProjectInfo(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	projectId, err := utils.URLParamUUID(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := schema.GetProject(projectId, s.db, true, false)
	if err != nil {
		cerr := notFoundOrInternal(err, schema.ErrProjectNotFound)
		http.Error(w, fmt.Sprintf("error getting project: %v", cerr), GetResponseCode(cerr))
		return
	}

	if !auth.Allow(actor, auth.ReadProject, auth.Target{Project: &project}) {
		cerr := errForbidden()
		http.Error(w, cerr.Error(), GetResponseCode(cerr))
		return
	}

	info, err := convertToProjectInfo(&project, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error getting project: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, info)
}

func (s *ProjectService) List(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var projects []schema.Project
	query := s.db.Preload("Memberships").Preload("Memberships.User")

	switch {
	case actor.Role == schema.RoleAdmin && actor.UniversityId != nil:
		query = query.Where("university_id = ?", *actor.UniversityId)
	case actor.Role == schema.RoleSupervisor:
		query = query.Where("supervisor_id = ?", actor.Id)
	default:
		query = query.Where(
			"id IN (?)",
			s.db.Model(&schema.TeamMembership{}).Select("project_id").
				Where("user_id = ? and status = ?", actor.Id, schema.MembershipActive),
		)
	}

	result := query.Find(&projects)
	if result.Error != nil {
		slog.Error("sql error listing projects", "user_id", actor.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing projects: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]ProjectInfo, 0, len(projects))
	for _, project := range projects {
		info, err := convertToProjectInfo(&project, s.db)
		if err != nil {
			http.Error(w, err.Error(), GetResponseCode(err))
			return
		}
		infos = append(infos, info)
	}

	utils.WriteJsonResponse(w, infos)
}
