package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"capstone_platform/project_hub/auth"
	"capstone_platform/project_hub/lifecycle"
	"capstone_platform/project_hub/notify"
	"capstone_platform/project_hub/schema"
	"capstone_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskService struct {
	db         *gorm.DB
	userAuth   auth.IdentityProvider
	dispatcher notify.Dispatcher
}

func (s *TaskService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Post("/create", s.CreateTask)
	r.Get("/list/{project_id}", s.List)

	r.Route("/{task_id}", func(r chi.Router) {
		r.Get("/", s.TaskInfo)
		r.Post("/update", s.UpdateTask)
		r.Post("/status", s.UpdateStatus)
		r.Post("/start", s.Start)
		r.Post("/complete", s.Complete)
		r.Post("/assign", s.Assign)

		r.Post("/dependencies/{dependency_id}", s.AddDependency)
		r.Delete("/dependencies/{dependency_id}", s.RemoveDependency)
	})

	return r
}

type createTaskRequest struct {
	ProjectId uuid.UUID `json:"project_id"`

	Title         string `json:"title"`
	TitleAr       string `json:"title_ar"`
	Description   string `json:"description"`
	DescriptionAr string `json:"description_ar"`

	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`

	AssigneeId    *uuid.UUID  `json:"assignee_id"`
	ParentTaskId  *uuid.UUID  `json:"parent_task_id"`
	DependencyIds []uuid.UUID `json:"dependency_ids"`
}

type createTaskResponse struct {
	TaskId uuid.UUID `json:"task_id"`
}

// checkActiveAssignee verifies the assignment precondition: the assignee
// must already hold an active membership of the task's project.
func checkActiveAssignee(txn *gorm.DB, projectId, userId uuid.UUID) error {
	membership, err := schema.GetMembership(projectId, userId, txn)
	if err != nil {
		if errors.Is(err, schema.ErrMembershipNotFound) {
			return validationError("assignee %v is not a member of the project", userId)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	if membership.Status != schema.MembershipActive {
		return validationError("assignee %v is not an active member of the project", userId)
	}
	return nil
}

func (s *TaskService) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params createTaskRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Title == "" {
		http.Error(w, "task title must not be empty", http.StatusUnprocessableEntity)
		return
	}
	if params.StartDate != nil && params.DueDate != nil && params.DueDate.Before(*params.StartDate) {
		http.Error(w, "task due date precedes start date", http.StatusUnprocessableEntity)
		return
	}

	task := schema.Task{
		Id:            uuid.New(),
		ProjectId:     params.ProjectId,
		Title:         params.Title,
		TitleAr:       params.TitleAr,
		Description:   params.Description,
		DescriptionAr: params.DescriptionAr,
		Status:        schema.TaskTodo,
		Progress:      0,
		CreatorId:     actor.Id,
		StartDate:     params.StartDate,
		DueDate:       params.DueDate,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(params.ProjectId, txn, false, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}

		if !auth.Allow(actor, auth.CreateTask, auth.Target{Project: &project}) {
			return errForbidden()
		}

		if params.AssigneeId != nil {
			if err := checkActiveAssignee(txn, project.Id, *params.AssigneeId); err != nil {
				return err
			}
			task.AssigneeId = params.AssigneeId
		}

		if params.ParentTaskId != nil {
			parent, err := schema.GetTask(*params.ParentTaskId, txn, false)
			if err != nil {
				return notFoundOrInternal(err, schema.ErrTaskNotFound)
			}
			if parent.ProjectId != project.Id {
				return CodedError(errors.New("parent task belongs to a different project"), http.StatusConflict)
			}
			task.ParentTaskId = params.ParentTaskId
		}

		dependencies := make([]schema.TaskDependency, 0, len(params.DependencyIds))
		for _, depId := range params.DependencyIds {
			dep, err := schema.GetTask(depId, txn, false)
			if err != nil {
				return notFoundOrInternal(err, schema.ErrTaskNotFound)
			}
			if dep.ProjectId != project.Id {
				return CodedError(errors.New("task dependencies must belong to the same project"), http.StatusConflict)
			}
			dependencies = append(dependencies, schema.TaskDependency{TaskId: task.Id, DependencyId: depId})
		}

		if result := txn.Create(&task); result.Error != nil {
			slog.Error("sql error creating new task", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		if len(dependencies) > 0 {
			if result := txn.Create(&dependencies); result.Error != nil {
				slog.Error("sql error creating task dependencies", "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating task: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("task created", "task_id", task.Id, "project_id", task.ProjectId, "creator_id", actor.Id)

	if task.AssigneeId != nil && *task.AssigneeId != actor.Id {
		s.dispatcher.Notify(*task.AssigneeId, "Task assigned",
			fmt.Sprintf("you were assigned task '%v'", task.Title), notify.KindTaskAssigned)
	}

	utils.WriteJsonResponse(w, createTaskResponse{TaskId: task.Id})
}

// loadTaskAndProject fetches a task together with its owning project, with
// memberships preloaded for policy decisions.
func loadTaskAndProject(txn *gorm.DB, taskId uuid.UUID, loadDeps bool) (schema.Task, schema.Project, error) {
	task, err := schema.GetTask(taskId, txn, loadDeps)
	if err != nil {
		return task, schema.Project{}, notFoundOrInternal(err, schema.ErrTaskNotFound)
	}

	project, err := schema.GetProject(task.ProjectId, txn, true, false)
	if err != nil {
		return task, project, notFoundOrInternal(err, schema.ErrProjectNotFound)
	}

	return task, project, nil
}

// canStart reports whether every dependency of the task is completed.
func canStart(task *schema.Task) bool {
	for _, dep := range task.Dependencies {
		if dep.Dependency == nil || dep.Dependency.Status != schema.TaskCompleted {
			return false
		}
	}
	return true
}

func (s *TaskService) Start(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskId, err := utils.URLParamUUID(r, "task_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		task, project, err := loadTaskAndProject(txn, taskId, true)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.UpdateTaskStatus, auth.Target{Project: &project, Task: &task}) {
			return errForbidden()
		}

		next, err := lifecycle.Task.Next(task.Status, lifecycle.TaskStart)
		if err != nil {
			return transitionConflict(err)
		}

		if !canStart(&task) {
			return CodedError(errors.New("task has incomplete dependencies"), http.StatusConflict)
		}

		updates := map[string]interface{}{"status": next}
		if task.StartDate == nil {
			updates["start_date"] = time.Now().UTC()
		}

		result := txn.Model(&schema.Task{Id: task.Id}).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error starting task", "task_id", task.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error starting task: %v", err), GetResponseCode(err))
		return
	}

	taskTransitions.WithLabelValues(schema.TaskInProgress).Inc()

	utils.WriteSuccess(w)
}

func (s *TaskService) Complete(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskId, err := utils.URLParamUUID(r, "task_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var task schema.Task
	var leaderId uuid.UUID

	err = s.db.Transaction(func(txn *gorm.DB) error {
		var project schema.Project
		task, project, err = loadTaskAndProject(txn, taskId, false)
		if err != nil {
			return err
		}
		leaderId = project.LeaderId

		if !auth.Allow(actor, auth.UpdateTaskStatus, auth.Target{Project: &project, Task: &task}) {
			return errForbidden()
		}

		next, err := lifecycle.Task.Next(task.Status, lifecycle.TaskComplete)
		if err != nil {
			return transitionConflict(err)
		}

		result := txn.Model(&schema.Task{Id: task.Id}).Updates(map[string]interface{}{
			"status":          next,
			"progress":        100,
			"completion_date": time.Now().UTC(),
		})
		if result.Error != nil {
			slog.Error("sql error completing task", "task_id", task.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error completing task: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("task completed", "task_id", taskId, "assignee_id", actor.Id)
	taskTransitions.WithLabelValues(schema.TaskCompleted).Inc()

	if leaderId != actor.Id {
		s.dispatcher.Notify(leaderId, "Task completed",
			fmt.Sprintf("task '%v' was completed", task.Title), notify.KindTaskCompleted)
	}

	utils.WriteSuccess(w)
}

type updateTaskStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus is a direct status override by the assignee, not gated by
// dependency readiness. Completion dates stay consistent with the status.
func (s *TaskService) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskId, err := utils.URLParamUUID(r, "task_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateTaskStatusRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := schema.CheckValidTaskStatus(params.Status); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		task, project, err := loadTaskAndProject(txn, taskId, false)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.UpdateTaskStatus, auth.Target{Project: &project, Task: &task}) {
			return errForbidden()
		}

		updates := map[string]interface{}{"status": params.Status}
		if params.Status == schema.TaskCompleted {
			updates["progress"] = 100
			updates["completion_date"] = time.Now().UTC()
		} else {
			updates["completion_date"] = nil
			if task.Status == schema.TaskCompleted {
				updates["progress"] = 0
			}
		}

		result := txn.Model(&schema.Task{Id: task.Id}).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error updating task status", "task_id", task.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating task status: %v", err), GetResponseCode(err))
		return
	}

	taskTransitions.WithLabelValues(params.Status).Inc()

	utils.WriteSuccess(w)
}

type updateTaskRequest struct {
	Title         *string `json:"title"`
	TitleAr       *string `json:"title_ar"`
	Description   *string `json:"description"`
	DescriptionAr *string `json:"description_ar"`

	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`
}

func (s *TaskService) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskId, err := utils.URLParamUUID(r, "task_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateTaskRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		task, project, err := loadTaskAndProject(txn, taskId, false)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.UpdateTask, auth.Target{Project: &project, Task: &task}) {
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
		if params.StartDate != nil {
			updates["start_date"] = *params.StartDate
		}
		if params.DueDate != nil {
			updates["due_date"] = *params.DueDate
		}

		if len(updates) == 0 {
			return nil
		}

		result := txn.Model(&schema.Task{Id: task.Id}).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error updating task", "task_id", task.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating task: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type assignTaskRequest struct {
	AssigneeId uuid.UUID `json:"assignee_id"`
}

func (s *TaskService) Assign(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskId, err := utils.URLParamUUID(r, "task_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params assignTaskRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var title string

	err = s.db.Transaction(func(txn *gorm.DB) error {
		task, project, err := loadTaskAndProject(txn, taskId, false)
		if err != nil {
			return err
		}
		title = task.Title

		if !auth.Allow(actor, auth.AssignTask, auth.Target{Project: &project, Task: &task}) {
			return errForbidden()
		}

		if err := checkActiveAssignee(txn, project.Id, params.AssigneeId); err != nil {
			return err
		}

		result := txn.Model(&schema.Task{Id: task.Id}).Update("assignee_id", params.AssigneeId)
		if result.Error != nil {
			slog.Error("sql error assigning task", "task_id", task.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error assigning task: %v", err), GetResponseCode(err))
		return
	}

	if params.AssigneeId != actor.Id {
		s.dispatcher.Notify(params.AssigneeId, "Task assigned",
			fmt.Sprintf("you were assigned task '%v'", title), notify.KindTaskAssigned)
	}

	utils.WriteSuccess(w)
}

// reachable reports whether target can be reached from start by following
// dependency edges. Used to reject edges that would close a cycle.
func reachable(txn *gorm.DB, start, target uuid.UUID) (bool, error) {
	visited := map[uuid.UUID]struct{}{}

	var recurse func(uuid.UUID) (bool, error)
	recurse = func(from uuid.UUID) (bool, error) {
		if from == target {
			return true, nil
		}
		if _, ok := visited[from]; ok {
			return false, nil
		}
		visited[from] = struct{}{}

		var edges []schema.TaskDependency
		result := txn.Find(&edges, "task_id = ?", from)
		if result.Error != nil {
			slog.Error("sql error walking task dependencies", "task_id", from, "error", result.Error)
			return false, CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		for _, edge := range edges {
			found, err := recurse(edge.DependencyId)
			if err != nil || found {
				return found, err
			}
		}
		return false, nil
	}

	return recurse(start)
}

func (s *TaskService) AddDependency(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskId, err := utils.URLParamUUID(r, "task_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dependencyId, err := utils.URLParamUUID(r, "dependency_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		task, project, err := loadTaskAndProject(txn, taskId, false)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.ManageTaskDependencies, auth.Target{Project: &project, Task: &task}) {
			return errForbidden()
		}

		if taskId == dependencyId {
			return CodedError(errors.New("a task cannot depend on itself"), http.StatusConflict)
		}

		dep, err := schema.GetTask(dependencyId, txn, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrTaskNotFound)
		}
		if dep.ProjectId != task.ProjectId {
			return CodedError(errors.New("task dependencies must belong to the same project"), http.StatusConflict)
		}

		// reject edges that would close a dependency cycle
		cyclic, err := reachable(txn, dependencyId, taskId)
		if err != nil {
			return err
		}
		if cyclic {
			return CodedError(errors.New("dependency would create a cycle"), http.StatusConflict)
		}

		edge := schema.TaskDependency{TaskId: taskId, DependencyId: dependencyId}
		if result := txn.Create(&edge); result.Error != nil {
			slog.Error("sql error creating task dependency", "task_id", taskId, "dependency_id", dependencyId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error adding task dependency: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *TaskService) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskId, err := utils.URLParamUUID(r, "task_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dependencyId, err := utils.URLParamUUID(r, "dependency_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		task, project, err := loadTaskAndProject(txn, taskId, false)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.ManageTaskDependencies, auth.Target{Project: &project, Task: &task}) {
			return errForbidden()
		}

		// removing an edge never deletes the referenced task
		result := txn.Delete(&schema.TaskDependency{TaskId: taskId, DependencyId: dependencyId})
		if result.Error != nil {
			slog.Error("sql error deleting task dependency", "task_id", taskId, "dependency_id", dependencyId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error removing task dependency: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

type TaskInfo struct {
	TaskId    uuid.UUID `json:"task_id"`
	ProjectId uuid.UUID `json:"project_id"`

	Title         string `json:"title"`
	TitleAr       string `json:"title_ar"`
	Description   string `json:"description"`
	DescriptionAr string `json:"description_ar"`

	Status   string `json:"status"`
	Progress int    `json:"progress"`

	CreatorId    uuid.UUID  `json:"creator_id"`
	AssigneeId   *uuid.UUID `json:"assignee_id"`
	ParentTaskId *uuid.UUID `json:"parent_task_id"`

	StartDate      *time.Time `json:"start_date"`
	DueDate        *time.Time `json:"due_date"`
	CompletionDate *time.Time `json:"completion_date"`

	DependencyIds []uuid.UUID `json:"dependency_ids"`
	CanStart      bool        `json:"can_start"`
}

func convertToTaskInfo(task *schema.Task) TaskInfo {
	depIds := make([]uuid.UUID, 0, len(task.Dependencies))
	for _, dep := range task.Dependencies {
		depIds = append(depIds, dep.DependencyId)
	}

	return TaskInfo{
		TaskId:         task.Id,
		ProjectId:      task.ProjectId,
		Title:          task.Title,
		TitleAr:        task.TitleAr,
		Description:    task.Description,
		DescriptionAr:  task.DescriptionAr,
		Status:         task.Status,
		Progress:       task.Progress,
		CreatorId:      task.CreatorId,
		AssigneeId:     task.AssigneeId,
		ParentTaskId:   task.ParentTaskId,
		StartDate:      task.StartDate,
		DueDate:        task.DueDate,
		CompletionDate: task.CompletionDate,
		DependencyIds:  depIds,
		CanStart:       canStart(task),
	}
}

func (s *TaskService) TaskInfo(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskId, err := utils.URLParamUUID(r, "task_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, project, err := loadTaskAndProject(s.db, taskId, true)
	if err != nil {
		http.Error(w, fmt.Sprintf("error getting task: %v", err), GetResponseCode(err))
		return
	}

	if !auth.Allow(actor, auth.ReadProject, auth.Target{Project: &project, Task: &task}) {
		cerr := errForbidden()
		http.Error(w, cerr.Error(), GetResponseCode(cerr))
		return
	}

	utils.WriteJsonResponse(w, convertToTaskInfo(&task))
}

func (s *TaskService) List(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, fmt.Sprintf("error listing tasks: %v", cerr), GetResponseCode(cerr))
		return
	}

	if !auth.Allow(actor, auth.ReadProject, auth.Target{Project: &project}) {
		cerr := errForbidden()
		http.Error(w, cerr.Error(), GetResponseCode(cerr))
		return
	}

	var tasks []schema.Task
	result := s.db.Preload("Dependencies").Preload("Dependencies.Dependency").
		Where("project_id = ?", projectId).Find(&tasks)
	if result.Error != nil {
		slog.Error("sql error listing tasks", "project_id", projectId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing tasks: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]TaskInfo, 0, len(tasks))
	for _, task := range tasks {
		infos = append(infos, convertToTaskInfo(&task))
	}

	utils.WriteJsonResponse(w, infos)
}
