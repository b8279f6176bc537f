package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUniversityNotFound  = errors.New("university not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrDeliverableNotFound = errors.New("deliverable not found")
	ErrMembershipNotFound  = errors.New("team membership not found")
	ErrDbAccessFailed      = errors.New("db access failed")
)

func GetUniversity(universityId uuid.UUID, db *gorm.DB) (University, error) {
	var university University

	result := db.First(&university, "id = ?", universityId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return university, ErrUniversityNotFound
		}
		slog.Error("sql error in get university", "university_id", universityId, "error", result.Error)
		return university, ErrDbAccessFailed
	}

	return university, nil
}

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetProject(projectId uuid.UUID, db *gorm.DB, loadMembers, loadTasks bool) (Project, error) {
	var project Project

	var result *gorm.DB = db
	if loadMembers {
		result = result.Preload("Memberships").Preload("Memberships.User")
	}
	if loadTasks {
		result = result.Preload("Tasks")
	}
	result = result.First(&project, "id = ?", projectId)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return project, ErrProjectNotFound
		}
		slog.Error("sql error in get project", "project_id", projectId, "error", result.Error)
		return project, ErrDbAccessFailed
	}

	return project, nil
}

func GetTask(taskId uuid.UUID, db *gorm.DB, loadDeps bool) (Task, error) {
	var task Task

	var result *gorm.DB = db
	if loadDeps {
		result = result.Preload("Dependencies").Preload("Dependencies.Dependency")
	}
	result = result.First(&task, "id = ?", taskId)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return task, ErrTaskNotFound
		}
		slog.Error("sql error in get task", "task_id", taskId, "error", result.Error)
		return task, ErrDbAccessFailed
	}

	return task, nil
}

func GetDeliverable(deliverableId uuid.UUID, db *gorm.DB) (Deliverable, error) {
	var deliverable Deliverable

	result := db.First(&deliverable, "id = ?", deliverableId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return deliverable, ErrDeliverableNotFound
		}
		slog.Error("sql error in get deliverable", "deliverable_id", deliverableId, "error", result.Error)
		return deliverable, ErrDbAccessFailed
	}

	return deliverable, nil
}

func GetMembership(projectId, userId uuid.UUID, db *gorm.DB) (TeamMembership, error) {
	var membership TeamMembership

	result := db.First(&membership, "project_id = ? and user_id = ?", projectId, userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return membership, ErrMembershipNotFound
		}
		slog.Error("sql error in get membership", "project_id", projectId, "user_id", userId, "error", result.Error)
		return membership, ErrDbAccessFailed
	}

	return membership, nil
}

// GetActiveMembership returns the single active membership a user holds
// across all projects, if any.
func GetActiveMembership(userId uuid.UUID, db *gorm.DB) (TeamMembership, error) {
	var membership TeamMembership

	result := db.First(&membership, "user_id = ? and status = ?", userId, MembershipActive)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return membership, ErrMembershipNotFound
		}
		slog.Error("sql error in get active membership", "user_id", userId, "error", result.Error)
		return membership, ErrDbAccessFailed
	}

	return membership, nil
}

func CountActiveMembers(projectId uuid.UUID, db *gorm.DB) (int64, error) {
	var count int64

	result := db.Model(&TeamMembership{}).
		Where("project_id = ? and status = ?", projectId, MembershipActive).
		Count(&count)
	if result.Error != nil {
		slog.Error("sql error counting active members", "project_id", projectId, "error", result.Error)
		return 0, ErrDbAccessFailed
	}

	return count, nil
}
