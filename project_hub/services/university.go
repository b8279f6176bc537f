package services

import (
	"fmt"
	"log/slog"
	"net/http"

	"capstone_platform/project_hub/auth"
	"capstone_platform/project_hub/schema"
	"capstone_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UniversityService manages tenants. Creation and deactivation are platform
// admin operations; listing is open so signup pages can offer a choice.
type UniversityService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *UniversityService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/list", s.List)

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.PlatformAdminOnly())

		r.Post("/create", s.CreateUniversity)
		r.Post("/{university_id}/deactivate", s.DeactivateUniversity)
		r.Post("/{university_id}/activate", s.ActivateUniversity)
	})

	return r
}

type createUniversityRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type createUniversityResponse struct {
	UniversityId uuid.UUID `json:"university_id"`
}

func (s *UniversityService) CreateUniversity(w http.ResponseWriter, r *http.Request) {
	var params createUniversityRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" || params.Domain == "" {
		http.Error(w, "university name and domain must not be empty", http.StatusUnprocessableEntity)
		return
	}

	university := schema.University{
		Id:       uuid.New(),
		Name:     params.Name,
		Domain:   params.Domain,
		IsActive: true,
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var existing schema.University
		result := txn.Limit(1).Find(&existing, "domain = ?", params.Domain)
		if result.Error != nil {
			slog.Error("sql error checking university domain", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected > 0 {
			return CodedError(fmt.Errorf("domain '%v' is already registered", params.Domain), http.StatusConflict)
		}

		if result := txn.Create(&university); result.Error != nil {
			slog.Error("sql error creating university", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating university: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("university created", "university_id", university.Id, "name", university.Name)

	utils.WriteJsonResponse(w, createUniversityResponse{UniversityId: university.Id})
}

func (s *UniversityService) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	universityId, err := utils.URLParamUUID(r, "university_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkUniversityExists(txn, universityId); err != nil {
			return err
		}

		result := txn.Model(&schema.University{Id: universityId}).Update("is_active", active)
		if result.Error != nil {
			slog.Error("sql error updating university", "university_id", universityId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating university %v: %v", universityId, err), GetResponseCode(err))
		return
	}

	slog.Info("university updated", "university_id", universityId, "is_active", active)

	utils.WriteSuccess(w)
}

// Deactivation is soft. Existing users and projects remain readable, but
// signup under the university is blocked.
func (s *UniversityService) DeactivateUniversity(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, false)
}

func (s *UniversityService) ActivateUniversity(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, true)
}

type UniversityInfo struct {
	UniversityId uuid.UUID `json:"university_id"`
	Name         string    `json:"name"`
	Domain       string    `json:"domain"`
	IsActive     bool      `json:"is_active"`
}

func (s *UniversityService) List(w http.ResponseWriter, r *http.Request) {
	var universities []schema.University
	result := s.db.Order("name asc").Find(&universities)
	if result.Error != nil {
		slog.Error("sql error listing universities", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing universities: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]UniversityInfo, 0, len(universities))
	for _, u := range universities {
		infos = append(infos, UniversityInfo{
			UniversityId: u.Id,
			Name:         u.Name,
			Domain:       u.Domain,
			IsActive:     u.IsActive,
		})
	}

	utils.WriteJsonResponse(w, infos)
}
