package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"horizon/internal/apperr"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/pkg/generic"
)

// ExpenseService handles organization-scoped expense records.
type ExpenseService struct {
	repo repository.IExpenseRepository
	orgs repository.IOrgRepository
}

func NewExpenseService(repo repository.IExpenseRepository, orgs repository.IOrgRepository) *ExpenseService {
	return &ExpenseService{repo: repo, orgs: orgs}
}

func validateExpense(e *model.Expense) error {
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return apperr.New(apperr.KindValidation, "description is required")
	}
	if !model.IsExpenseCategory(e.Category) {
		return apperr.New(apperr.KindValidation, "unrecognized expense category")
	}
	if e.Amount <= 0 {
		return apperr.New(apperr.KindValidation, "amount must be positive")
	}
	return nil
}

// Create inserts an expense into the caller's organization. The currency
// defaults to the organization's when unset; the date defaults to now.
func (s *ExpenseService) Create(ctx context.Context, orgID, userID primitive.ObjectID, e *model.Expense) (*model.Expense, error) {
	if err := validateExpense(e); err != nil {
		return nil, err
	}
	if e.Currency == "" {
		org, err := s.orgs.FindByID(ctx, orgID)
		if err != nil || org == nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to load organization", err)
		}
		e.Currency = org.Currency
	} else if !model.IsSupportedCurrency(e.Currency) {
		return nil, apperr.New(apperr.KindValidation, "unsupported currency")
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	now := time.Now()
	e.CreatedBy = userID
	e.CreatedAt = now
	e.UpdatedAt = now

	created, err := s.repo.Insert(ctx, orgID, e)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create expense", err)
	}
	return created, nil
}

func (s *ExpenseService) Get(ctx context.Context, orgID, id primitive.ObjectID) (*model.Expense, error) {
	e, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		if err == generic.ErrNotFound {
			return nil, apperr.New(apperr.KindNotFound, "expense not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load expense", err)
	}
	return e, nil
}

func (s *ExpenseService) List(ctx context.Context, orgID primitive.ObjectID, category string) ([]*model.Expense, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	expenses, err := s.repo.Find(ctx, orgID, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list expenses", err)
	}
	return expenses, nil
}

// Update replaces the mutable fields of an expense.
func (s *ExpenseService) Update(ctx context.Context, orgID, id primitive.ObjectID, patch *model.Expense) (*model.Expense, error) {
	existing, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	existing.Description = patch.Description
	existing.Category = patch.Category
	existing.Amount = patch.Amount
	if patch.Currency != "" {
		existing.Currency = patch.Currency
	}
	if !patch.Date.IsZero() {
		existing.Date = patch.Date
	}
	if err := validateExpense(existing); err != nil {
		return nil, err
	}
	if !model.IsSupportedCurrency(existing.Currency) {
		return nil, apperr.New(apperr.KindValidation, "unsupported currency")
	}
	existing.UpdatedAt = time.Now()

	if err := s.repo.Replace(ctx, orgID, existing); err != nil {
		if err == generic.ErrNotFound {
			return nil, apperr.New(apperr.KindNotFound, "expense not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update expense", err)
	}
	return existing, nil
}

func (s *ExpenseService) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		if err == generic.ErrNotFound {
			return apperr.New(apperr.KindNotFound, "expense not found")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete expense", err)
	}
	return nil
}

// Summary aggregates spend per category within one organization. The org
// match is the first pipeline stage.
func (s *ExpenseService) Summary(ctx context.Context, orgID primitive.ObjectID) ([]model.ExpenseSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"total": -1}}},
	}
	var results []model.ExpenseSummary
	if err := s.repo.Aggregate(ctx, orgID, pipeline, &results); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to aggregate expenses", err)
	}
	return results, nil
}
