package schema

import (
	"time"

	"github.com/google/uuid"
)

// University is the tenant root. Every other entity carries its id, and all
// cross entity checks confirm same tenant membership first. Universities are
// soft deactivated, never deleted.
type University struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name   string `gorm:"size:200;not null"`
	Domain string `gorm:"unique;size:100;not null"`

	IsActive bool `gorm:"not null;default:true"`

	Users    []User    `gorm:"constraint:OnDelete:CASCADE"`
	Projects []Project `gorm:"constraint:OnDelete:CASCADE"`
}

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Username string `gorm:"unique;size:50;not null"`
	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	Role string `gorm:"size:50;not null;default:'student'"`

	// Nil only for the bootstrap platform admin, which manages universities
	// and is outside every tenant.
	UniversityId *uuid.UUID `gorm:"type:uuid"`

	IsActive      bool `gorm:"not null;default:true"`
	EmailVerified bool `gorm:"not null;default:false"`

	Memberships []TeamMembership `gorm:"constraint:OnDelete:CASCADE"`
}

func (u *User) IsPlatformAdmin() bool {
	return u.Role == RoleAdmin && u.UniversityId == nil
}

type Project struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title         string `gorm:"size:200;not null"`
	TitleAr       string `gorm:"size:200"`
	Description   string
	DescriptionAr string

	Status string `gorm:"size:50;not null;default:'draft'"`

	LeaderId uuid.UUID `gorm:"type:uuid;not null"`
	Leader   *User     `gorm:"foreignKey:LeaderId"`

	SupervisorId *uuid.UUID `gorm:"type:uuid"`
	Supervisor   *User      `gorm:"foreignKey:SupervisorId;constraint:OnDelete:SET NULL"`

	// A supervisor requested at submission time. Recorded as a preference
	// only, binding happens at approval.
	PreferredSupervisorId *uuid.UUID `gorm:"type:uuid"`

	UniversityId uuid.UUID `gorm:"type:uuid;not null"`

	StartDate      *time.Time
	DueDate        *time.Time
	CompletionDate *time.Time

	Memberships  []TeamMembership `gorm:"constraint:OnDelete:CASCADE"`
	Tasks        []Task           `gorm:"constraint:OnDelete:CASCADE"`
	Deliverables []Deliverable    `gorm:"constraint:OnDelete:CASCADE"`
}

type TeamMembership struct {
	ProjectId uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;primaryKey"`

	Role   string `gorm:"size:50;not null;default:'member'"`
	Status string `gorm:"size:50;not null;default:'pending'"`

	JoinedAt time.Time

	Project *Project `gorm:"constraint:OnDelete:CASCADE"`
	User    *User    `gorm:"constraint:OnDelete:CASCADE"`
}

type Task struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProjectId uuid.UUID `gorm:"type:uuid;not null"`
	Project   *Project

	Title         string `gorm:"size:200;not null"`
	TitleAr       string `gorm:"size:200"`
	Description   string
	DescriptionAr string

	Status   string `gorm:"size:50;not null;default:'todo'"`
	Progress int    `gorm:"not null;default:0"`

	CreatorId  uuid.UUID  `gorm:"type:uuid;not null"`
	AssigneeId *uuid.UUID `gorm:"type:uuid"`
	Assignee   *User      `gorm:"foreignKey:AssigneeId;constraint:OnDelete:SET NULL"`

	ParentTaskId *uuid.UUID `gorm:"type:uuid"`
	ParentTask   *Task      `gorm:"constraint:OnDelete:SET NULL"`

	StartDate      *time.Time
	DueDate        *time.Time
	CompletionDate *time.Time

	Dependencies []TaskDependency `gorm:"foreignKey:TaskId;constraint:OnDelete:CASCADE"`
}

// TaskDependency is a relation, not a possession. Removing an edge never
// deletes the referenced task.
type TaskDependency struct {
	TaskId       uuid.UUID `gorm:"type:uuid;primaryKey"`
	DependencyId uuid.UUID `gorm:"type:uuid;primaryKey"`

	Task       *Task `gorm:"foreignKey:TaskId"`
	Dependency *Task `gorm:"foreignKey:DependencyId"`
}

type Deliverable struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProjectId uuid.UUID `gorm:"type:uuid;not null"`
	Project   *Project

	Title         string `gorm:"size:200;not null"`
	TitleAr       string `gorm:"size:200"`
	Description   string
	DescriptionAr string

	Status string `gorm:"size:50;not null;default:'pending'"`

	DueDate     time.Time `gorm:"not null"`
	SubmittedAt *time.Time

	SubmissionNotes string
	FileRef         string `gorm:"size:500"`

	Feedback   string
	FeedbackAr string
}

type Notification struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;not null;index"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE"`

	Title string `gorm:"size:200;not null"`
	Body  string
	Kind  string `gorm:"size:50;not null"`

	CreatedAt time.Time
	Read      bool `gorm:"not null;default:false"`
}
