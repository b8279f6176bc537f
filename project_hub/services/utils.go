package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"capstone_platform/project_hub/lifecycle"
	"capstone_platform/project_hub/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

// A policy deny surfaces as a bare "operation not allowed", nothing about
// why is leaked to the caller.
func errForbidden() error {
	return CodedError(errors.New("operation not allowed"), http.StatusForbidden)
}

// Illegal state machine transitions depend on existing state, not input
// shape, so they surface as conflicts.
func transitionConflict(err error) error {
	var illegal *lifecycle.IllegalTransitionError
	if errors.As(err, &illegal) {
		return CodedError(err, http.StatusConflict)
	}
	return CodedError(err, http.StatusInternalServerError)
}

func validationError(format string, args ...interface{}) error {
	return CodedError(fmt.Errorf(format, args...), http.StatusUnprocessableEntity)
}

func notFoundOrInternal(err error, notFound error) error {
	if errors.Is(err, notFound) {
		return CodedError(err, http.StatusNotFound)
	}
	return CodedError(err, http.StatusInternalServerError)
}

func checkUniversityExists(txn *gorm.DB, universityId uuid.UUID) error {
	if _, err := schema.GetUniversity(universityId, txn); err != nil {
		return notFoundOrInternal(err, schema.ErrUniversityNotFound)
	}
	return nil
}

// validateProposedMember enforces the preconditions for putting a student
// on a team: student role, same university as the project, and the one
// active project invariant.
func validateProposedMember(txn *gorm.DB, userId uuid.UUID, universityId uuid.UUID) (schema.User, error) {
	user, err := schema.GetUser(userId, txn)
	if err != nil {
		return user, notFoundOrInternal(err, schema.ErrUserNotFound)
	}

	if user.Role != schema.RoleStudent {
		return user, validationError("user %v is not a student", userId)
	}

	if user.UniversityId == nil || *user.UniversityId != universityId {
		return user, validationError("user %v belongs to a different university", userId)
	}

	_, err = schema.GetActiveMembership(userId, txn)
	if err == nil {
		return user, CodedError(fmt.Errorf("user %v already has an active project", userId), http.StatusConflict)
	}
	if !errors.Is(err, schema.ErrMembershipNotFound) {
		return user, CodedError(err, http.StatusInternalServerError)
	}

	return user, nil
}

// checkTeamCapacity verifies that adding n members keeps the team at or
// under the size cap (leader included).
func checkTeamCapacity(txn *gorm.DB, projectId uuid.UUID, adding int) error {
	count, err := schema.CountActiveMembers(projectId, txn)
	if err != nil {
		return CodedError(err, http.StatusInternalServerError)
	}
	if count+int64(adding) > schema.MaxTeamSize {
		return CodedError(fmt.Errorf("team size limit of %v members exceeded", schema.MaxTeamSize), http.StatusConflict)
	}
	return nil
}

func activeProjectMembers(txn *gorm.DB, projectId uuid.UUID) ([]schema.TeamMembership, error) {
	var members []schema.TeamMembership
	result := txn.Find(&members, "project_id = ? and status = ?", projectId, schema.MembershipActive)
	if result.Error != nil {
		slog.Error("sql error listing active project members", "project_id", projectId, "error", result.Error)
		return nil, CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	return members, nil
}
