package services

import (
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

type DeliverableService struct {
	db         *gorm.DB
	userAuth   auth.IdentityProvider
	dispatcher notify.Dispatcher
}

func (s *DeliverableService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Post("/create", s.CreateDeliverable)
	r.Get("/list/{project_id}", s.List)

	r.Route("/{deliverable_id}", func(r chi.Router) {
		r.Get("/", s.DeliverableInfo)
		r.Post("/update", s.UpdateDeliverable)
		r.Delete("/", s.DeleteDeliverable)
		r.Post("/submit", s.Submit)
		r.Post("/decision", s.Decide)
		r.Post("/feedback", s.Feedback)
		r.Post("/reopen", s.Reopen)
	})

	return r
}

type createDeliverableRequest struct {
	ProjectId uuid.UUID `json:"project_id"`

	Title         string `json:"title"`
	TitleAr       string `json:"title_ar"`
	Description   string `json:"description"`
	DescriptionAr string `json:"description_ar"`

	DueDate time.Time `json:"due_date"`
}

type createDeliverableResponse struct {
	DeliverableId uuid.UUID `json:"deliverable_id"`
}

func (s *DeliverableService) CreateDeliverable(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params createDeliverableRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Title == "" {
		http.Error(w, "deliverable title must not be empty", http.StatusUnprocessableEntity)
		return
	}
	if params.DueDate.Before(time.Now().UTC()) {
		http.Error(w, "deliverable due date must not be in the past", http.StatusUnprocessableEntity)
		return
	}

	deliverable := schema.Deliverable{
		Id:            uuid.New(),
		ProjectId:     params.ProjectId,
		Title:         params.Title,
		TitleAr:       params.TitleAr,
		Description:   params.Description,
		DescriptionAr: params.DescriptionAr,
		Status:        schema.DeliverablePending,
		DueDate:       params.DueDate,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err := schema.GetProject(params.ProjectId, txn, true, false)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrProjectNotFound)
		}

		if !auth.Allow(actor, auth.ManageDeliverable, auth.Target{Project: &project}) {
			return errForbidden()
		}

		if result := txn.Create(&deliverable); result.Error != nil {
			slog.Error("sql error creating deliverable", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating deliverable: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("deliverable created", "deliverable_id", deliverable.Id, "project_id", deliverable.ProjectId)

	utils.WriteJsonResponse(w, createDeliverableResponse{DeliverableId: deliverable.Id})
}

func loadDeliverableAndProject(txn *gorm.DB, deliverableId uuid.UUID) (schema.Deliverable, schema.Project, error) {
	deliverable, err := schema.GetDeliverable(deliverableId, txn)
	if err != nil {
		return deliverable, schema.Project{}, notFoundOrInternal(err, schema.ErrDeliverableNotFound)
	}

	project, err := schema.GetProject(deliverable.ProjectId, txn, true, false)
	if err != nil {
		return deliverable, project, notFoundOrInternal(err, schema.ErrProjectNotFound)
	}

	return deliverable, project, nil
}

type updateDeliverableRequest struct {
	Title         *string `json:"title"`
	TitleAr       *string `json:"title_ar"`
	Description   *string `json:"description"`
	DescriptionAr *string `json:"description_ar"`

	DueDate *time.Time `json:"due_date"`
}

func (s *DeliverableService) UpdateDeliverable(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	deliverableId, err := utils.URLParamUUID(r, "deliverable_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateDeliverableRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		deliverable, project, err := loadDeliverableAndProject(txn, deliverableId)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.ManageDeliverable, auth.Target{Project: &project}) {
			return errForbidden()
		}

		updates := map[string]interface{}{}
		if params.Title != nil {
			if *params.Title == "" {
				return validationError("deliverable title must not be empty")
			}
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
		if params.DueDate != nil {
			updates["due_date"] = *params.DueDate
		}

		if len(updates) == 0 {
			return nil
		}

		result := txn.Model(&schema.Deliverable{Id: deliverable.Id}).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error updating deliverable", "deliverable_id", deliverable.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating deliverable: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *DeliverableService) DeleteDeliverable(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	deliverableId, err := utils.URLParamUUID(r, "deliverable_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		deliverable, project, err := loadDeliverableAndProject(txn, deliverableId)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.ManageDeliverable, auth.Target{Project: &project}) {
			return errForbidden()
		}

		if result := txn.Delete(&schema.Deliverable{Id: deliverable.Id}); result.Error != nil {
			slog.Error("sql error deleting deliverable", "deliverable_id", deliverable.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting deliverable: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("deliverable deleted", "deliverable_id", deliverableId, "user_id", actor.Id)

	utils.WriteSuccess(w)
}

type submitDeliverableRequest struct {
	SubmissionNotes string `json:"submission_notes"`
	FileRef         string `json:"file_ref"`
}

func (s *DeliverableService) Submit(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	deliverableId, err := utils.URLParamUUID(r, "deliverable_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params submitDeliverableRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.SubmissionNotes == "" && params.FileRef == "" {
		http.Error(w, "a submission requires notes or a file reference", http.StatusUnprocessableEntity)
		return
	}

	var supervisorId *uuid.UUID
	var title string

	err = s.db.Transaction(func(txn *gorm.DB) error {
		deliverable, project, err := loadDeliverableAndProject(txn, deliverableId)
		if err != nil {
			return err
		}
		supervisorId = project.SupervisorId
		title = deliverable.Title

		if !auth.Allow(actor, auth.SubmitDeliverable, auth.Target{Project: &project}) {
			return errForbidden()
		}

		next, err := lifecycle.Deliverable.Next(deliverable.Status, lifecycle.DeliverableSubmit)
		if err != nil {
			return transitionConflict(err)
		}

		result := txn.Model(&schema.Deliverable{Id: deliverable.Id}).Updates(map[string]interface{}{
			"status":           next,
			"submitted_at":     time.Now().UTC(),
			"submission_notes": params.SubmissionNotes,
			"file_ref":         params.FileRef,
		})
		if result.Error != nil {
			slog.Error("sql error submitting deliverable", "deliverable_id", deliverable.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error submitting deliverable: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("deliverable submitted", "deliverable_id", deliverableId, "user_id", actor.Id)
	deliverableTransitions.WithLabelValues(schema.DeliverableSubmitted).Inc()

	if supervisorId != nil {
		s.dispatcher.Notify(*supervisorId, "Deliverable submitted",
			fmt.Sprintf("deliverable '%v' was submitted for review", title), notify.KindDeliverableDecided)
	}

	utils.WriteSuccess(w)
}

type decideDeliverableRequest struct {
	Approve    bool   `json:"approve"`
	Feedback   string `json:"feedback"`
	FeedbackAr string `json:"feedback_ar"`
}

func (s *DeliverableService) Decide(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	deliverableId, err := utils.URLParamUUID(r, "deliverable_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params decideDeliverableRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	action := lifecycle.DeliverableReject
	if params.Approve {
		action = lifecycle.DeliverableApprove
	}

	var next string
	var leaderId uuid.UUID
	var title string

	err = s.db.Transaction(func(txn *gorm.DB) error {
		deliverable, project, err := loadDeliverableAndProject(txn, deliverableId)
		if err != nil {
			return err
		}
		leaderId = project.LeaderId
		title = deliverable.Title

		if !auth.Allow(actor, auth.DecideDeliverable, auth.Target{Project: &project}) {
			return errForbidden()
		}

		next, err = lifecycle.Deliverable.Next(deliverable.Status, action)
		if err != nil {
			return transitionConflict(err)
		}

		updates := map[string]interface{}{"status": next}
		if params.Feedback != "" {
			updates["feedback"] = params.Feedback
		}
		if params.FeedbackAr != "" {
			updates["feedback_ar"] = params.FeedbackAr
		}

		result := txn.Model(&schema.Deliverable{Id: deliverable.Id}).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error deciding deliverable", "deliverable_id", deliverable.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deciding deliverable: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("deliverable decided", "deliverable_id", deliverableId, "status", next, "supervisor_id", actor.Id)
	deliverableTransitions.WithLabelValues(next).Inc()

	s.dispatcher.Notify(leaderId, "Deliverable reviewed",
		fmt.Sprintf("deliverable '%v' was %v", title, next), notify.KindDeliverableDecided)

	utils.WriteSuccess(w)
}

type feedbackRequest struct {
	Feedback   string `json:"feedback"`
	FeedbackAr string `json:"feedback_ar"`
}

// Feedback records supervisor commentary without changing the deliverable
// status, so it is usable at any point in the review cycle.
func (s *DeliverableService) Feedback(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	deliverableId, err := utils.URLParamUUID(r, "deliverable_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params feedbackRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Feedback == "" && params.FeedbackAr == "" {
		http.Error(w, "feedback must not be empty", http.StatusUnprocessableEntity)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		deliverable, project, err := loadDeliverableAndProject(txn, deliverableId)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.DeliverableFeedback, auth.Target{Project: &project}) {
			return errForbidden()
		}

		result := txn.Model(&schema.Deliverable{Id: deliverable.Id}).Updates(map[string]interface{}{
			"feedback":    params.Feedback,
			"feedback_ar": params.FeedbackAr,
		})
		if result.Error != nil {
			slog.Error("sql error recording deliverable feedback", "deliverable_id", deliverable.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error recording feedback: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

// Reopen returns a rejected deliverable to pending so the team can revise
// and resubmit. The previous submission timestamp is cleared.
func (s *DeliverableService) Reopen(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	deliverableId, err := utils.URLParamUUID(r, "deliverable_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		deliverable, project, err := loadDeliverableAndProject(txn, deliverableId)
		if err != nil {
			return err
		}

		if !auth.Allow(actor, auth.ManageDeliverable, auth.Target{Project: &project}) {
			return errForbidden()
		}

		next, err := lifecycle.Deliverable.Next(deliverable.Status, lifecycle.DeliverableReopen)
		if err != nil {
			return transitionConflict(err)
		}

		result := txn.Model(&schema.Deliverable{Id: deliverable.Id}).Updates(map[string]interface{}{
			"status":       next,
			"submitted_at": nil,
		})
		if result.Error != nil {
			slog.Error("sql error reopening deliverable", "deliverable_id", deliverable.Id, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error reopening deliverable: %v", err), GetResponseCode(err))
		return
	}

	deliverableTransitions.WithLabelValues(schema.DeliverablePending).Inc()

	utils.WriteSuccess(w)
}

type DeliverableInfo struct {
	DeliverableId uuid.UUID `json:"deliverable_id"`
	ProjectId     uuid.UUID `json:"project_id"`

	Title         string `json:"title"`
	TitleAr       string `json:"title_ar"`
	Description   string `json:"description"`
	DescriptionAr string `json:"description_ar"`

	Status string `json:"status"`

	DueDate     time.Time  `json:"due_date"`
	SubmittedAt *time.Time `json:"submitted_at"`

	SubmissionNotes string `json:"submission_notes"`
	FileRef         string `json:"file_ref"`

	Feedback   string `json:"feedback"`
	FeedbackAr string `json:"feedback_ar"`
}

func convertToDeliverableInfo(d *schema.Deliverable) DeliverableInfo {
	return DeliverableInfo{
		DeliverableId:   d.Id,
		ProjectId:       d.ProjectId,
		Title:           d.Title,
		TitleAr:         d.TitleAr,
		Description:     d.Description,
		DescriptionAr:   d.DescriptionAr,
		Status:          d.Status,
		DueDate:         d.DueDate,
		SubmittedAt:     d.SubmittedAt,
		SubmissionNotes: d.SubmissionNotes,
		FileRef:         d.FileRef,
		Feedback:        d.Feedback,
		FeedbackAr:      d.FeedbackAr,
	}
}

func (s *DeliverableService) DeliverableInfo(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	deliverableId, err := utils.URLParamUUID(r, "deliverable_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	deliverable, project, err := loadDeliverableAndProject(s.db, deliverableId)
	if err != nil {
		http.Error(w, fmt.Sprintf("error getting deliverable: %v", err), GetResponseCode(err))
		return
	}

	if !auth.Allow(actor, auth.ReadProject, auth.Target{Project: &project}) {
		cerr := errForbidden()
		http.Error(w, cerr.Error(), GetResponseCode(cerr))
		return
	}

	utils.WriteJsonResponse(w, convertToDeliverableInfo(&deliverable))
}

func (s *DeliverableService) List(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, fmt.Sprintf("error listing deliverables: %v", cerr), GetResponseCode(cerr))
		return
	}

	if !auth.Allow(actor, auth.ReadProject, auth.Target{Project: &project}) {
		cerr := errForbidden()
		http.Error(w, cerr.Error(), GetResponseCode(cerr))
		return
	}

	var deliverables []schema.Deliverable
	result := s.db.Order("due_date asc").Find(&deliverables, "project_id = ?", projectId)
	if result.Error != nil {
		slog.Error("sql error listing deliverables", "project_id", projectId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing deliverables: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]DeliverableInfo, 0, len(deliverables))
	for _, d := range deliverables {
		infos = append(infos, convertToDeliverableInfo(&d))
	}

	utils.WriteJsonResponse(w, infos)
}
