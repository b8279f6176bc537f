package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"capstone_platform/project_hub/auth"
	"capstone_platform/project_hub/schema"
	"capstone_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Post("/signup", s.Signup)
		r.Get("/login", s.LoginWithEmail)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/info", s.Info)

		r.Get("/notifications", s.Notifications)
		r.Post("/notifications/{notification_id}/read", s.MarkNotificationRead)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly())

		r.Get("/list", s.List)
		r.Post("/create", s.CreateUser)

		r.Post("/{user_id}/verify", s.VerifyUser)
		r.Post("/{user_id}/deactivate", s.DeactivateUser)
		r.Post("/{user_id}/activate", s.ActivateUser)
	})

	return r
}

type signupRequest struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Password     string    `json:"password"`
	UniversityId uuid.UUID `json:"university_id"`
}

type signupResponse struct {
	UserId uuid.UUID `json:"user_id"`
}

// Signup registers a student under an existing university. Supervisor and
// admin accounts are provisioned by a university admin instead.
func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	university, err := schema.GetUniversity(params.UniversityId, s.db)
	if err != nil {
		cerr := notFoundOrInternal(err, schema.ErrUniversityNotFound)
		http.Error(w, fmt.Sprintf("error signing up: %v", cerr), GetResponseCode(cerr))
		return
	}
	if !university.IsActive {
		http.Error(w, "university is not accepting new registrations", http.StatusUnprocessableEntity)
		return
	}

	universityId := params.UniversityId
	userId, err := s.userAuth.CreateUser(auth.NewUserArgs{
		Username:     params.Username,
		Email:        params.Email,
		Password:     params.Password,
		Role:         schema.RoleStudent,
		UniversityId: &universityId,
	})
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	slog.Info("user signed up", "user_id", userId, "university_id", params.UniversityId)

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}

type loginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
}

func (s *UserService) LoginWithEmail(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
		return
	}

	login, err := s.userAuth.LoginWithEmail(email, password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail):
			responseCode = http.StatusNotFound
		case errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		case errors.Is(err, auth.ErrUserDeactivated):
			responseCode = http.StatusForbidden
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	utils.WriteJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type UserMembershipInfo struct {
	ProjectId    uuid.UUID `json:"project_id"`
	ProjectTitle string    `json:"project_title"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
}

type UserInfo struct {
	Id            uuid.UUID  `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	UniversityId  *uuid.UUID `json:"university_id"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`

	Memberships []UserMembershipInfo `json:"memberships"`
}

func convertToUserInfo(user *schema.User, memberships []schema.TeamMembership) UserInfo {
	infos := make([]UserMembershipInfo, 0, len(memberships))
	for _, m := range memberships {
		info := UserMembershipInfo{ProjectId: m.ProjectId, Role: m.Role, Status: m.Status}
		if m.Project != nil {
			info.ProjectTitle = m.Project.Title
		}
		infos = append(infos, info)
	}

	return UserInfo{
		Id:            user.Id,
		Username:      user.Username,
		Email:         user.Email,
		Role:          user.Role,
		UniversityId:  user.UniversityId,
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		Memberships:   infos,
	}
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var memberships []schema.TeamMembership
	result := s.db.Preload("Project").Find(&memberships, "user_id = ?", user.Id)
	if result.Error != nil {
		slog.Error("sql error loading user memberships", "user_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error getting user info: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToUserInfo(&user, memberships))
}

// List returns the users of the admin's university. The platform admin,
// which belongs to no university, sees everyone.
func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	query := s.db
	if !actor.IsPlatformAdmin() {
		query = query.Where("university_id = ?", *actor.UniversityId)
	}

	var users []schema.User
	result := query.Find(&users)
	if result.Error != nil {
		slog.Error("sql error listing users", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing users: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, convertToUserInfo(&u, nil))
	}
	utils.WriteJsonResponse(w, infos)
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUser provisions supervisor and admin accounts inside the admin's
// own university. Students register themselves through signup.
func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if actor.IsPlatformAdmin() {
		http.Error(w, "the platform admin does not belong to a university", http.StatusForbidden)
		return
	}

	var params createUserRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := schema.CheckValidRole(params.Role); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	userId, err := s.userAuth.CreateUser(auth.NewUserArgs{
		Username:     params.Username,
		Email:        params.Email,
		Password:     params.Password,
		Role:         params.Role,
		UniversityId: actor.UniversityId,
	})
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			responseCode = http.StatusConflict
		}
		http.Error(w, fmt.Sprintf("error creating user: %v", err), responseCode)
		return
	}

	slog.Info("user created", "user_id", userId, "role", params.Role, "admin_id", actor.Id)

	utils.WriteJsonResponse(w, signupResponse{UserId: userId})
}

// sameUniversity checks that the target user is managed by the acting
// admin's university. The platform admin may manage anyone.
func sameUniversity(actor *schema.User, target *schema.User) bool {
	if actor.IsPlatformAdmin() {
		return true
	}
	return target.UniversityId != nil && *target.UniversityId == *actor.UniversityId
}

func (s *UserService) setUserField(w http.ResponseWriter, r *http.Request, field string, value interface{}) {
	actor, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	userId, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(userId, txn)
		if err != nil {
			return notFoundOrInternal(err, schema.ErrUserNotFound)
		}

		if !sameUniversity(&actor, &user) {
			return errForbidden()
		}

		result := txn.Model(&schema.User{Id: userId}).Update(field, value)
		if result.Error != nil {
			slog.Error("sql error updating user", "user_id", userId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating user %v: %v", userId, err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *UserService) VerifyUser(w http.ResponseWriter, r *http.Request) {
	s.setUserField(w, r, "email_verified", true)
}

func (s *UserService) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	s.setUserField(w, r, "is_active", false)
}

func (s *UserService) ActivateUser(w http.ResponseWriter, r *http.Request) {
	s.setUserField(w, r, "is_active", true)
}

type NotificationInfo struct {
	NotificationId uuid.UUID `json:"notification_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Kind           string    `json:"kind"`
	CreatedAt      time.Time `json:"created_at"`
	Read           bool      `json:"read"`
}

func (s *UserService) Notifications(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var notifications []schema.Notification
	result := s.db.Order("created_at desc").Find(&notifications, "user_id = ?", user.Id)
	if result.Error != nil {
		slog.Error("sql error listing notifications", "user_id", user.Id, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing notifications: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]NotificationInfo, 0, len(notifications))
	for _, n := range notifications {
		infos = append(infos, NotificationInfo{
			NotificationId: n.Id,
			Title:          n.Title,
			Body:           n.Body,
			Kind:           n.Kind,
			CreatedAt:      n.CreatedAt,
			Read:           n.Read,
		})
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *UserService) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	notificationId, err := utils.URLParamUUID(r, "notification_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Model(&schema.Notification{}).
		Where("id = ? and user_id = ?", notificationId, user.Id).
		Update("read", true)
	if result.Error != nil {
		slog.Error("sql error marking notification read", "notification_id", notificationId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error updating notification: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}

	utils.WriteSuccess(w)
}
