// Package notify delivers in-app notifications fired by lifecycle
// transitions. Dispatch is fire and forget: a transition commits its state
// change regardless of whether delivery succeeds, failures are logged and
// swallowed.
package notify

import (
	"log/slog"
	"time"

	"capstone_platform/project_hub/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindProjectSubmitted   = "project_submitted"
	KindProjectDecided     = "project_decided"
	KindMembershipInvite   = "membership_invite"
	KindMembershipChanged  = "membership_changed"
	KindTaskAssigned       = "task_assigned"
	KindTaskCompleted      = "task_completed"
	KindDeliverableDecided = "deliverable_decided"
	KindDeliverableOverdue = "deliverable_overdue"
)

type Dispatcher interface {
	Notify(userId uuid.UUID, title, body, kind string)
}

// DbDispatcher stores notifications as rows read back by the notification
// listing endpoint.
type DbDispatcher struct {
	db *gorm.DB
}

func NewDbDispatcher(db *gorm.DB) *DbDispatcher {
	return &DbDispatcher{db: db}
}

func (d *DbDispatcher) Notify(userId uuid.UUID, title, body, kind string) {
	notification := schema.Notification{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		Body:      body,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	result := d.db.Create(&notification)
	if result.Error != nil {
		// never propagated, a failed notification must not roll back the
		// transition that fired it
		slog.Error("sql error storing notification", "user_id", userId, "kind", kind, "error", result.Error)
		return
	}

	slog.Info("notification dispatched", "user_id", userId, "kind", kind, "title", title)
}

// NoopDispatcher is used where notifications are irrelevant.
type NoopDispatcher struct{}

func (NoopDispatcher) Notify(userId uuid.UUID, title, body, kind string) {}
