package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// IsValid reports whether s is a recognized task status.
func (s TaskStatus) IsValid() bool {
	return s == TaskOpen || s == TaskInProgress || s == TaskDone
}

// Task is an organization-scoped work item. AssigneeID, when set, must
// reference a principal with an active membership in the same organization.
type Task struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgID      primitive.ObjectID `bson:"orgId" json:"orgId"`
	Title      string             `bson:"title" json:"title"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status     TaskStatus         `bson:"status" json:"status"`
	AssigneeID primitive.ObjectID `bson:"assigneeId,omitempty" json:"assigneeId,omitempty"`
	DueAt      time.Time          `bson:"dueAt,omitempty" json:"dueAt,omitempty"`
	CreatedBy  primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (t *Task) GetID() primitive.ObjectID      { return t.ID }
func (t *Task) SetID(id primitive.ObjectID)    { t.ID = id }
func (t *Task) GetOrgID() primitive.ObjectID   { return t.OrgID }
func (t *Task) SetOrgID(id primitive.ObjectID) { t.OrgID = id }
