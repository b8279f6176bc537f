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

type TeamService struct {
	db         *gorm.DB
	userAuth   auth.IdentityProvider
	dispatcher notify.Dispatcher
}

func (s *TeamService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Route("/{project_id}", func(r chi.Router) {
		r.Get("/members", s.ListMembers)
		r.Post("/invite", s.Invite)
		r.Post("/respond", s.Respond)
		r.Post("/remove", s.Remove)
		r.Post("/leave", s.Leave)
	})

	return r
}

type inviteRequest struct {
	UserId uuid.UUID `json:"user_id"`
}

func (s *TeamService) Invite(w http.ResponseWriter, r *http.Request) {
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

	var params inviteRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var projectTitle string

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(projectId, txn, true, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}
		projectTitle = project.Title

		if !auth.Allow(actor, auth.ManageMembers, auth.Target{Project: &project}) {
			return errForbidden()
		}

		if _, err := validateProposedMember(txn, params.UserId, project.UniversityId); err != nil {
			return err
		}

		existing, err := schema.GetMembership(projectId, params.UserId, txn)
		if err == nil {
			// a removed or rejected membership can be re-invited
			next, terr := lifecycle.Membership.Next(existing.Status, lifecycle.MembershipInvite)
			if terr != nil {
				return transitionConflict(terr)
			}
			result := txn.Model(&schema.TeamMembership{ProjectId: projectId, UserId: params.UserId}).
				Update("status", next)
			if result.Error != nil {
				slog.Error("sql error updating membership", "project_id", projectId, "user_id", params.UserId, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
			return nil
		}
		if !errors.Is(err, schema.ErrMembershipNotFound) {
			return CodedError(err, http.StatusInternalServerError)
		}

		membership := schema.TeamMembership{
			ProjectId: projectId,
			UserId:    params.UserId,
			Role:      schema.MemberMember,
			Status:    schema.MembershipPending,
			JoinedAt:  time.Now().UTC(),
		}
		if result := txn.Create(&membership); result.Error != nil {
			slog.Error("sql error creating membership", "project_id", projectId, "user_id", params.UserId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error inviting member: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("membership invite sent", "project_id", projectId, "user_id", params.UserId, "inviter_id", actor.Id)

	s.dispatcher.Notify(params.UserId, "Team invitation",
		fmt.Sprintf("you were invited to join project '%v'", projectTitle), notify.KindMembershipInvite)

	utils.WriteSuccess(w)
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

// Respond handles the invitee's answer to a pending invitation. Accepting
// re-checks the one active project invariant and the team size cap, since
// both may have changed between invite and response.
func (s *TeamService) Respond(w http.ResponseWriter, r *http.Request) {
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

	var params respondRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var leaderId uuid.UUID

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(projectId, txn, false, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}
		leaderId = project.LeaderId

		membership, err := schema.GetMembership(projectId, actor.Id, txn)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrMembershipNotFound)
		}

		action := lifecycle.MembershipDecline
		if params.Accept {
			action = lifecycle.MembershipAccept
		}

		next, err := lifecycle.Membership.Next(membership.Status, action)
		if err != nil {
			return transitionConflict(err)
		}

		if params.Accept {
			_, err := schema.GetActiveMembership(actor.Id, txn)
			if err == nil {
				return CodedError(errors.New("user already has an active project"), http.StatusConflict)
			}
			if !errors.Is(err, schema.ErrMembershipNotFound) {
				return CodedError(err, http.StatusInternalServerError)
			}

			if err := checkTeamCapacity(txn, projectId, 1); err != nil {
				return err
			}
		}

		result := txn.Model(&schema.TeamMembership{ProjectId: projectId, UserId: actor.Id}).
			Updates(map[string]interface{}{"status": next, "joined_at": time.Now().UTC()})
		if result.Error != nil {
			slog.Error("sql error updating membership", "project_id", projectId, "user_id", actor.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error responding to invitation: %v", err), GetResponseCode(err))
		return
	}

	verb := "declined"
	if params.Accept {
		verb = "accepted"
	}
	slog.Info("membership invite answered", "project_id", projectId, "user_id", actor.Id, "answer", verb)

	s.dispatcher.Notify(leaderId, "Team invitation answered",
		fmt.Sprintf("%v %v your team invitation", actor.Username, verb), notify.KindMembershipChanged)

	utils.WriteSuccess(w)
}

type removeMemberRequest struct {
	UserId uuid.UUID `json:"user_id"`
}

func (s *TeamService) Remove(w http.ResponseWriter, r *http.Request) {
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

	var params removeMemberRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var projectTitle string

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(projectId, txn, true, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}
		projectTitle = project.Title

		if !auth.Allow(actor, auth.ManageMembers, auth.Target{Project: &project}) {
			return errForbidden()
		}

		if params.UserId == project.LeaderId {
			return CodedError(errors.New("the project leader cannot be removed from the team"), http.StatusConflict)
		}

		membership, err := schema.GetMembership(projectId, params.UserId, txn)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrMembershipNotFound)
		}

		next, err := lifecycle.Membership.Next(membership.Status, lifecycle.MembershipRemove)
		if err != nil {
			return transitionConflict(err)
		}

		result := txn.Model(&schema.TeamMembership{ProjectId: projectId, UserId: params.UserId}).
			Update("status", next)
		if result.Error != nil {
			slog.Error("sql error updating membership", "project_id", projectId, "user_id", params.UserId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error removing member: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("team member removed", "project_id", projectId, "user_id", params.UserId, "remover_id", actor.Id)

	s.dispatcher.Notify(params.UserId, "Removed from team",
		fmt.Sprintf("you were removed from project '%v'", projectTitle), notify.KindMembershipChanged)

	utils.WriteSuccess(w)
}

func (s *TeamService) Leave(w http.ResponseWriter, r *http.Request) {
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

	var leaderId uuid.UUID

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(projectId, txn, false, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}
		leaderId = project.LeaderId

		if actor.Id == project.LeaderId {
			return CodedError(errors.New("the project leader cannot leave the team"), http.StatusConflict)
		}

		membership, err := schema.GetMembership(projectId, actor.Id, txn)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrMembershipNotFound)
		}

		next, err := lifecycle.Membership.Next(membership.Status, lifecycle.MembershipRemove)
		if err != nil {
			return transitionConflict(err)
		}

		result := txn.Model(&schema.TeamMembership{ProjectId: projectId, UserId: actor.Id}).
			Update("status", next)
		if result.Error != nil {
			slog.Error("sql error updating membership", "project_id", projectId, "user_id", actor.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error leaving team: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("team member left", "project_id", projectId, "user_id", actor.Id)

	s.dispatcher.Notify(leaderId, "Team member left",
		fmt.Sprintf("%v left the project team", actor.Username), notify.KindMembershipChanged)

	utils.WriteSuccess(w)
}

func (s *TeamService) ListMembers(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, fmt.Sprintf("error listing members: %v", cerr), GetResponseCode(cerr))
		return
	}

	if !auth.Allow(actor, auth.ReadProject, auth.Target{Project: &project}) {
		cerr := errForbidden()
		http.Error(w, cerr.Error(), GetResponseCode(cerr))
		return
	}

	var memberships []schema.TeamMembership
	result := s.db.Preload("User").Find(&memberships, "project_id = ?", projectId)
	if result.Error != nil {
		slog.Error("sql error listing team members", "project_id", projectId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing members: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]MemberInfo, 0, len(memberships))
	for _, m := range memberships {
		info := MemberInfo{UserId: m.UserId, Role: m.Role, Status: m.Status}
		if m.User != nil {
			info.Username = m.User.Username
		}
		infos = append(infos, info)
	}

	utils.WriteJsonResponse(w, infos)
}
