package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpenseCategories is the closed set of expense categories.
var ExpenseCategories = []string{
	"payroll", "rent", "software", "marketing", "travel", "legal", "other",
}

// IsExpenseCategory reports whether category is recognized.
func IsExpenseCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Expense is an organization-scoped financial record.
type Expense struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgID       primitive.ObjectID `bson:"orgId" json:"orgId"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Amount      float64            `bson:"amount" json:"amount"`
	Currency    string             `bson:"currency" json:"currency"`
	Date        time.Time          `bson:"date" json:"date"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (e *Expense) GetID() primitive.ObjectID      { return e.ID }
func (e *Expense) SetID(id primitive.ObjectID)    { e.ID = id }
func (e *Expense) GetOrgID() primitive.ObjectID   { return e.OrgID }
func (e *Expense) SetOrgID(id primitive.ObjectID) { e.OrgID = id }

// ExpenseSummary is one bucket of the per-category aggregation.
type ExpenseSummary struct {
	Category string  `bson:"_id" json:"category"`
	Total    float64 `bson:"total" json:"total"`
	Count    int64   `bson:"count" json:"count"`
}
