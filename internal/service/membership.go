package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"horizon/internal/apperr"
	"horizon/internal/config"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/pkg/util"
)

// ProvisionResult carries the setup capability back to the inviting owner,
// who is responsible for out-of-band delivery.
type ProvisionResult struct {
	Member     model.MemberResponse `json:"member"`
	SetupToken string               `json:"setupToken"`
	SetupLink  string               `json:"setupLink"`
}

// MembershipService is the membership registry. Role and removal mutations
// serialize per organization so the sole-owner check observes the snapshot
// it mutates.
type MembershipService struct {
	memberships repository.IMembershipRepository
	users       repository.IUserRepository
	userSvc     *UserService
	txn         repository.TxnRunner
	cfg         *config.Config

	orgLocks sync.Map // orgID hex -> *sync.Mutex
}

func NewMembershipService(cfg *config.Config, memberships repository.IMembershipRepository, users repository.IUserRepository, userSvc *UserService, txn repository.TxnRunner) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		users:       users,
		userSvc:     userSvc,
		txn:         txn,
		cfg:         cfg,
	}
}

func (s *MembershipService) lockOrg(orgID primitive.ObjectID) func() {
	v, _ := s.orgLocks.LoadOrStore(orgID.Hex(), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Authorize is the canonical access predicate: userID may act in orgID as
// required iff a membership (user, org) exists with status=active and
// role at or above required.
func (s *MembershipService) Authorize(ctx context.Context, userID, orgID primitive.ObjectID, required model.Role) (*model.Membership, error) {
	m, err := s.memberships.FindByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load membership", err)
	}
	if m == nil || !m.IsActive() {
		return nil, apperr.New(apperr.KindOrgContextRequired, "no active membership in this organization")
	}
	if !m.Role.AtLeast(required) {
		return nil, apperr.New(apperr.KindInsufficientRole, "this action requires the owner role")
	}
	return m, nil
}

// ListOrgMembers lists the memberships of an organization with principal
// details joined in.
func (s *MembershipService) ListOrgMembers(ctx context.Context, orgID primitive.ObjectID) ([]model.MemberResponse, error) {
	edges, err := s.memberships.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list memberships", err)
	}
	members := make([]model.MemberResponse, 0, len(edges))
	for _, m := range edges {
		user, err := s.users.FindByID(ctx, m.UserID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to load member", err)
		}
		if user == nil {
			continue // dangling edge, skip rather than fail the listing
		}
		row := model.MemberResponse{
			UserID:   user.ID.Hex(),
			Name:     user.Name,
			Email:    user.Email,
			Role:     m.Role,
			Status:   m.Status,
			JoinedAt: m.CreatedAt,
		}
		if !m.InvitedBy.IsZero() {
			row.InvitedBy = m.InvitedBy.Hex()
		}
		members = append(members, row)
	}
	return members, nil
}

// ListActiveForUser lists the organizations a principal can act in.
func (s *MembershipService) ListActiveForUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Membership, error) {
	active, err := s.memberships.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list memberships", err)
	}
	return active, nil
}

// Provision creates a provisional principal plus a pending_user_setup edge
// in one transaction and returns the setup capability. Inviting an email
// that belongs to an active principal is a conflict by design.
func (s *MembershipService) Provision(ctx context.Context, inviterID, orgID primitive.ObjectID, req *model.ProvisionMemberRequest) (*ProvisionResult, error) {
	email := util.NormalizeEmail(req.Email)
	if err := util.ValidateEmail(email); err != nil {
		return nil, apperr.New(apperr.KindValidation, err.Error())
	}
	name := strings.TrimSpace(req.Name)
	if err := util.ValidateName(name); err != nil {
		return nil, apperr.New(apperr.KindValidation, err.Error())
	}
	role := req.Role
	if role == "" {
		role = model.RoleMember
	}
	if !role.IsValid() {
		return nil, apperr.New(apperr.KindValidation, "unrecognized role")
	}

	var result *ProvisionResult
	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		user, setupToken, err := s.userSvc.CreateProvisional(ctx, name, email)
		if err != nil {
			return err
		}
		edge := &model.Membership{
			UserID:    user.ID,
			OrgID:     orgID,
			Role:      role,
			Status:    model.MembershipPendingSetup,
			InvitedBy: inviterID,
		}
		created, err := s.memberships.Create(ctx, edge)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperr.New(apperr.KindDuplicateEmail, "a user with this email already exists")
			}
			return apperr.Wrap(apperr.KindInternal, "failed to create membership", err)
		}
		result = &ProvisionResult{
			Member: model.MemberResponse{
				UserID:    user.ID.Hex(),
				Name:      user.Name,
				Email:     user.Email,
				Role:      created.Role,
				Status:    created.Status,
				JoinedAt:  created.CreatedAt,
				InvitedBy: inviterID.Hex(),
			},
			SetupToken: setupToken,
			SetupLink:  fmt.Sprintf("%s/setup-account/%s", strings.TrimRight(s.cfg.Frontend.BaseURL, "/"), setupToken),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ActivatePending transitions the principal's unique pending membership to
// active. Called during setup-token consumption, inside that flow's
// transaction.
func (s *MembershipService) ActivatePending(ctx context.Context, userID primitive.ObjectID) (*model.Membership, error) {
	pending, err := s.memberships.FindPendingByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load pending membership", err)
	}
	if pending == nil {
		return nil, apperr.New(apperr.KindInvalidSetupToken, "no pending membership for this account")
	}
	if err := s.memberships.Update(ctx, pending.ID, bson.M{"status": model.MembershipActive}); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to activate membership", err)
	}
	pending.Status = model.MembershipActive
	return pending, nil
}

// ChangeRole updates a member's role. Demoting the last active owner fails
// with a sole-owner violation and leaves the store unchanged.
func (s *MembershipService) ChangeRole(ctx context.Context, orgID, targetUserID primitive.ObjectID, newRole model.Role) error {
	if !newRole.IsValid() {
		return apperr.New(apperr.KindValidation, "unrecognized role")
	}
	unlock := s.lockOrg(orgID)
	defer unlock()

	return s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.memberships.FindByUserAndOrg(ctx, targetUserID, orgID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load membership", err)
		}
		if m == nil {
			return apperr.New(apperr.KindNotFound, "membership not found")
		}
		if m.Role == newRole {
			return nil
		}
		if m.Role == model.RoleOwner && m.IsActive() && newRole != model.RoleOwner {
			owners, err := s.memberships.CountActiveOwners(ctx, orgID)
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to count owners", err)
			}
			if owners <= 1 {
				return apperr.New(apperr.KindSoleOwnerViolation, "organization must keep at least one active owner")
			}
		}
		if err := s.memberships.Update(ctx, m.ID, bson.M{"role": newRole}); err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to update role", err)
		}
		return nil
	})
}

// Remove deletes a membership, subject to the sole-owner invariant. When the
// removed principal's active or default organization pointed here, the
// references are rehomed to any remaining active membership, or cleared.
func (s *MembershipService) Remove(ctx context.Context, orgID, targetUserID primitive.ObjectID) error {
	unlock := s.lockOrg(orgID)
	defer unlock()

	return s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.memberships.FindByUserAndOrg(ctx, targetUserID, orgID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load membership", err)
		}
		if m == nil {
			return apperr.New(apperr.KindNotFound, "membership not found")
		}
		if m.Role == model.RoleOwner && m.IsActive() {
			owners, err := s.memberships.CountActiveOwners(ctx, orgID)
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to count owners", err)
			}
			if owners <= 1 {
				return apperr.New(apperr.KindSoleOwnerViolation, "organization must keep at least one active owner")
			}
		}
		if err := s.memberships.Delete(ctx, m.ID); err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to delete membership", err)
		}

		user, err := s.users.FindByID(ctx, targetUserID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load user", err)
		}
		if user == nil {
			return nil
		}
		if user.ActiveOrgID != orgID && user.DefaultOrgID != orgID {
			return nil
		}
		remaining, err := s.memberships.FindActiveByUser(ctx, targetUserID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to list memberships", err)
		}
		adopted := primitive.NilObjectID
		for _, r := range remaining {
			if r.OrgID != orgID {
				adopted = r.OrgID
				break
			}
		}
		return s.userSvc.UpdateOrgRefs(ctx, targetUserID, adopted, adopted)
	})
}
