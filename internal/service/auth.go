package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"horizon/internal/apperr"
	"horizon/internal/config"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/internal/token"
	"horizon/pkg/timer"
	"horizon/pkg/util"
)

// AuthResult is the payload of every authentication-changing flow. Token is
// always freshly minted.
type AuthResult struct {
	Token       string              `json:"token"`
	User        model.UserResponse  `json:"user"`
	Org         *model.Organization `json:"organization,omitempty"`
	Role        model.Role          `json:"role,omitempty"`
	Memberships []*model.Membership `json:"memberships,omitempty"`
}

// AuthService implements the authentication-changing flows. Each flow is
// atomic: either all store mutations commit or none.
type AuthService struct {
	users       *UserService
	memberships *MembershipService
	orgs        repository.IOrgRepository
	tokens      *token.Service
	txn         repository.TxnRunner
	cfg         *config.Config
}

func NewAuthService(cfg *config.Config, users *UserService, memberships *MembershipService, orgs repository.IOrgRepository, tokens *token.Service, txn repository.TxnRunner) *AuthService {
	return &AuthService{
		users:       users,
		memberships: memberships,
		orgs:        orgs,
		tokens:      tokens,
		txn:         txn,
		cfg:         cfg,
	}
}

// RegisterOwner self-registers a principal together with its organization
// and the first owner membership. A duplicate email fails fast and leaves
// the store untouched.
func (s *AuthService) RegisterOwner(ctx context.Context, req *model.RegisterOwnerRequest) (*AuthResult, error) {
	email := util.NormalizeEmail(req.Email)
	if err := util.ValidateEmail(email); err != nil {
		return nil, apperr.New(apperr.KindValidation, err.Error())
	}
	name := strings.TrimSpace(req.Name)
	if err := util.ValidateName(name); err != nil {
		return nil, apperr.New(apperr.KindValidation, err.Error())
	}
	orgName := strings.TrimSpace(req.OrganizationName)
	if err := util.ValidateName(orgName); err != nil {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("organization %s", err))
	}

	var (
		user *model.User
		org  *model.Organization
	)
	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.CreateWithPassword(ctx, name, email, req.Password)
		if err != nil {
			return err
		}
		org, err = s.orgs.Create(ctx, &model.Organization{
			Name:      orgName,
			CreatedBy: user.ID,
			Timezone:  "UTC",
			Currency:  "USD",
			Settings:  model.DefaultOrgSettings(),
		})
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to create organization", err)
		}
		if _, err := s.memberships.memberships.Create(ctx, &model.Membership{
			UserID: user.ID,
			OrgID:  org.ID,
			Role:   model.RoleOwner,
			Status: model.MembershipActive,
		}); err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to create membership", err)
		}
		return s.users.UpdateOrgRefs(ctx, user.ID, org.ID, org.ID)
	})
	if err != nil {
		return nil, err
	}

	user.ActiveOrgID = org.ID
	user.DefaultOrgID = org.ID
	return s.result(user, org, model.RoleOwner, nil)
}

// CompleteSetup consumes a setup token, activates the unique pending
// membership and scopes the new session to its organization.
func (s *AuthService) CompleteSetup(ctx context.Context, setupToken, password string) (*AuthResult, error) {
	var (
		user *model.User
		edge *model.Membership
	)
	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.ConsumeSetupToken(ctx, setupToken, password)
		if err != nil {
			return err
		}
		edge, err = s.memberships.ActivatePending(ctx, user.ID)
		if err != nil {
			return err
		}
		return s.users.UpdateOrgRefs(ctx, user.ID, edge.OrgID, edge.OrgID)
	})
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.FindByID(ctx, edge.OrgID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load organization", err)
	}
	user.ActiveOrgID = edge.OrgID
	user.DefaultOrgID = edge.OrgID
	return s.result(user, org, edge.Role, []*model.Membership{edge})
}

// Login verifies credentials and picks the session's active organization:
// the persisted active reference, then the default reference, then the most
// recent active membership. The choice is persisted when it differs.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	defer timer.Track("login")()

	user, err := s.users.VerifyPassword(ctx, util.NormalizeEmail(email), password)
	if err != nil {
		return nil, err
	}

	active, err := s.memberships.ListActiveForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	chosen := pickActiveOrg(user, active)
	if !chosen.IsZero() && chosen != user.ActiveOrgID {
		if err := s.users.UpdateActiveOrg(ctx, user.ID, chosen); err != nil {
			return nil, err
		}
		user.ActiveOrgID = chosen
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	var (
		org  *model.Organization
		role model.Role
	)
	if !chosen.IsZero() {
		org, err = s.orgs.FindByID(ctx, chosen)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to load organization", err)
		}
		for _, m := range active {
			if m.OrgID == chosen {
				role = m.Role
				break
			}
		}
	} else {
		log.Warn().Str("userId", user.ID.Hex()).Msg("login with no active memberships")
	}
	return s.result(user, org, role, active)
}

// pickActiveOrg returns the first of (persisted active, persisted default,
// most recent) that maps to an active membership, or zero when none do.
func pickActiveOrg(user *model.User, active []*model.Membership) primitive.ObjectID {
	has := func(orgID primitive.ObjectID) bool {
		for _, m := range active {
			if m.OrgID == orgID {
				return true
			}
		}
		return false
	}
	if !user.ActiveOrgID.IsZero() && has(user.ActiveOrgID) {
		return user.ActiveOrgID
	}
	if !user.DefaultOrgID.IsZero() && has(user.DefaultOrgID) {
		return user.DefaultOrgID
	}
	if len(active) > 0 {
		return active[0].OrgID
	}
	return primitive.NilObjectID
}

// SwitchOrg rescopes the session to another organization the principal is
// active in. The prior token stays valid until natural expiry.
func (s *AuthService) SwitchOrg(ctx context.Context, user *model.User, orgID primitive.ObjectID) (*AuthResult, error) {
	edge, err := s.memberships.Authorize(ctx, user.ID, orgID, model.RoleMember)
	if err != nil {
		if apperr.IsKind(err, apperr.KindOrgContextRequired) {
			// No membership here: indistinguishable from a nonexistent org.
			return nil, apperr.New(apperr.KindNotFound, "organization not found")
		}
		return nil, err
	}
	if err := s.users.UpdateActiveOrg(ctx, user.ID, orgID); err != nil {
		return nil, err
	}
	user.ActiveOrgID = orgID

	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load organization", err)
	}
	return s.result(user, org, edge.Role, nil)
}

// RequestPasswordReset issues a reset capability when the account exists.
// The caller's response must not depend on whether it did.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, string, error) {
	resetToken, user, err := s.users.IssueResetToken(ctx, util.NormalizeEmail(email))
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", nil
	}
	link := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.cfg.Frontend.BaseURL, "/"), resetToken)
	return resetToken, link, nil
}

// ResetPassword consumes a reset token and mints a fresh session.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, password string) (*AuthResult, error) {
	user, err := s.users.ConsumeResetToken(ctx, resetToken, password)
	if err != nil {
		return nil, err
	}

	active, err := s.memberships.ListActiveForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	chosen := pickActiveOrg(user, active)
	var (
		org  *model.Organization
		role model.Role
	)
	if !chosen.IsZero() {
		org, err = s.orgs.FindByID(ctx, chosen)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to load organization", err)
		}
		for _, m := range active {
			if m.OrgID == chosen {
				role = m.Role
				break
			}
		}
	}
	return s.result(user, org, role, active)
}

func (s *AuthService) result(user *model.User, org *model.Organization, role model.Role, memberships []*model.Membership) (*AuthResult, error) {
	orgID := primitive.NilObjectID
	if org != nil {
		orgID = org.ID
	}
	signed, err := s.tokens.Mint(user.ID, orgID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to mint session token", err)
	}
	return &AuthResult{
		Token:       signed,
		User:        user.ToResponse(),
		Org:         org,
		Role:        role,
		Memberships: memberships,
	}, nil
}
