package services

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"capstone_platform/project_hub/auth"
	"capstone_platform/project_hub/notify"
	"capstone_platform/project_hub/schema"
	"capstone_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type ProjectHub struct {
	user        UserService
	university  UniversityService
	project     ProjectService
	team        TeamService
	task        TaskService
	deliverable DeliverableService

	db         *gorm.DB
	dispatcher notify.Dispatcher
	stop       chan bool
}

func NewProjectHub(db *gorm.DB, userAuth auth.IdentityProvider, dispatcher notify.Dispatcher) ProjectHub {
	return ProjectHub{
		user:        UserService{db: db, userAuth: userAuth},
		university:  UniversityService{db: db, userAuth: userAuth},
		project:     ProjectService{db: db, userAuth: userAuth, dispatcher: dispatcher},
		team:        TeamService{db: db, userAuth: userAuth, dispatcher: dispatcher},
		task:        TaskService{db: db, userAuth: userAuth, dispatcher: dispatcher},
		deliverable: DeliverableService{db: db, userAuth: userAuth, dispatcher: dispatcher},

		db:         db,
		dispatcher: dispatcher,
		stop:       make(chan bool, 1),
	}
}

func (h *ProjectHub) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/user", h.user.Routes())
	r.Mount("/university", h.university.Routes())
	r.Mount("/project", h.project.Routes())
	r.Mount("/team", h.team.Routes())
	r.Mount("/task", h.task.Routes())
	r.Mount("/deliverable", h.deliverable.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// deadlineSweep notifies leaders of unsubmitted deliverables that passed
// their due date.
func (h *ProjectHub) deadlineSweep() {
	now := time.Now().UTC()

	var deliverables []schema.Deliverable
	result := h.db.Preload("Project").
		Where("status = ? and due_date < ?", schema.DeliverablePending, now).
		Find(&deliverables)
	if result.Error != nil {
		slog.Error("deadline sweep: sql error querying overdue deliverables", "error", result.Error)
		return
	}

	for _, d := range deliverables {
		if d.Project == nil {
			continue
		}
		h.dispatcher.Notify(d.Project.LeaderId, "Deliverable overdue",
			fmt.Sprintf("deliverable '%v' passed its due date without a submission", d.Title),
			notify.KindDeliverableOverdue)
	}

	if len(deliverables) > 0 {
		slog.Info("deadline sweep: flagged overdue deliverables", "count", len(deliverables))
	}
}

func (h *ProjectHub) DeadlineSweep(interval time.Duration) {
	slog.Info("deadline sweep: starting")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.deadlineSweep()
		case <-h.stop:
			slog.Info("deadline sweep: process stopped")
			return
		}
	}
}

func (h *ProjectHub) StopDeadlineSweep() {
	close(h.stop)
}
