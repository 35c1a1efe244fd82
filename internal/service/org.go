package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"horizon/internal/apperr"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/pkg/util"
)

// OrgService is the organization registry.
type OrgService struct {
	repo repository.IOrgRepository
}

func NewOrgService(repo repository.IOrgRepository) *OrgService {
	return &OrgService{repo: repo}
}

func (s *OrgService) Get(ctx context.Context, id primitive.ObjectID) (*model.Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load organization", err)
	}
	if org == nil {
		return nil, apperr.New(apperr.KindNotFound, "organization not found")
	}
	return org, nil
}

// Update mutates the mutable organization fields. Currency and timezone are
// validated against their closed sets.
func (s *OrgService) Update(ctx context.Context, id primitive.ObjectID, req *model.UpdateOrgRequest) (*model.Organization, error) {
	set := bson.M{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := util.ValidateName(name); err != nil {
			return nil, apperr.New(apperr.KindValidation, err.Error())
		}
		set["name"] = name
	}
	if req.Industry != nil {
		set["industry"] = strings.TrimSpace(*req.Industry)
	}
	if req.Timezone != nil {
		if err := util.ValidateTimezone(*req.Timezone); err != nil {
			return nil, apperr.New(apperr.KindValidation, err.Error())
		}
		set["timezone"] = *req.Timezone
	}
	if req.Currency != nil {
		if !model.IsSupportedCurrency(*req.Currency) {
			return nil, apperr.New(apperr.KindValidation, "unsupported currency")
		}
		set["currency"] = *req.Currency
	}
	if req.Settings != nil {
		set["settings"] = *req.Settings
	}
	if len(set) == 0 {
		return nil, apperr.New(apperr.KindValidation, "no updatable fields provided")
	}

	if err := s.repo.Update(ctx, id, set); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update organization", err)
	}
	return s.Get(ctx, id)
}
