package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"horizon/internal/apperr"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/pkg/generic"
)

// TaskService handles organization-scoped tasks. Assignees are validated
// against the membership registry at write time; the check is best-effort
// against concurrent removals.
type TaskService struct {
	repo        repository.ITaskRepository
	memberships repository.IMembershipRepository
}

func NewTaskService(repo repository.ITaskRepository, memberships repository.IMembershipRepository) *TaskService {
	return &TaskService{repo: repo, memberships: memberships}
}

func (s *TaskService) validateAssignee(ctx context.Context, orgID, assigneeID primitive.ObjectID) error {
	if assigneeID.IsZero() {
		return nil
	}
	m, err := s.memberships.FindByUserAndOrg(ctx, assigneeID, orgID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to check assignee", err)
	}
	if m == nil || !m.IsActive() {
		return apperr.New(apperr.KindValidation, "assignee is not an active member of this organization")
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, orgID, userID primitive.ObjectID, t *model.Task) (*model.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, apperr.New(apperr.KindValidation, "title is required")
	}
	if t.Status == "" {
		t.Status = model.TaskOpen
	}
	if !t.Status.IsValid() {
		return nil, apperr.New(apperr.KindValidation, "unrecognized task status")
	}
	if err := s.validateAssignee(ctx, orgID, t.AssigneeID); err != nil {
		return nil, err
	}
	now := time.Now()
	t.CreatedBy = userID
	t.CreatedAt = now
	t.UpdatedAt = now

	created, err := s.repo.Insert(ctx, orgID, t)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create task", err)
	}
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, orgID, id primitive.ObjectID) (*model.Task, error) {
	t, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		if err == generic.ErrNotFound {
			return nil, apperr.New(apperr.KindNotFound, "task not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load task", err)
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, orgID primitive.ObjectID, status model.TaskStatus) ([]*model.Task, error) {
	filter := bson.M{}
	if status != "" {
		if !status.IsValid() {
			return nil, apperr.New(apperr.KindValidation, "unrecognized task status")
		}
		filter["status"] = status
	}
	tasks, err := s.repo.Find(ctx, orgID, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, orgID, id primitive.ObjectID, patch *model.Task) (*model.Task, error) {
	existing, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != "" {
		existing.Title = strings.TrimSpace(patch.Title)
	}
	existing.Notes = patch.Notes
	if patch.Status != "" {
		if !patch.Status.IsValid() {
			return nil, apperr.New(apperr.KindValidation, "unrecognized task status")
		}
		existing.Status = patch.Status
	}
	if patch.AssigneeID != existing.AssigneeID {
		if err := s.validateAssignee(ctx, orgID, patch.AssigneeID); err != nil {
			return nil, err
		}
		existing.AssigneeID = patch.AssigneeID
	}
	if !patch.DueAt.IsZero() {
		existing.DueAt = patch.DueAt
	}
	existing.UpdatedAt = time.Now()

	if err := s.repo.Replace(ctx, orgID, existing); err != nil {
		if err == generic.ErrNotFound {
			return nil, apperr.New(apperr.KindNotFound, "task not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update task", err)
	}
	return existing, nil
}

func (s *TaskService) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		if err == generic.ErrNotFound {
			return apperr.New(apperr.KindNotFound, "task not found")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete task", err)
	}
	return nil
}
