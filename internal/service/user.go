package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"horizon/internal/apperr"
	"horizon/internal/config"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/pkg/util"
)

// UserService is the credential store: it owns password hashes and the
// setup/reset capability tokens. All failures are reported, never retried
// internally.
type UserService struct {
	repo        repository.IUserRepository
	memberships repository.IMembershipRepository
	cfg         *config.Config
}

func NewUserService(cfg *config.Config, repo repository.IUserRepository, memberships repository.IMembershipRepository) *UserService {
	return &UserService{repo: repo, memberships: memberships, cfg: cfg}
}

func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}
	return user, nil
}

// CreateWithPassword creates an immediately-active principal. The unique
// email index resolves concurrent duplicates: exactly one insert wins.
func (s *UserService) CreateWithPassword(ctx context.Context, name, email, password string) (*model.User, error) {
	if err := util.ValidatePassword(password); err != nil {
		return nil, apperr.New(apperr.KindValidation, err.Error())
	}
	hash, err := util.HashPassword(password, s.cfg.Auth.BCryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		Preferences:  model.DefaultPreferences(),
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.New(apperr.KindDuplicateEmail, "email is already registered")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create user", err)
	}
	return created, nil
}

// CreateProvisional creates (or reuses) an inactive principal with a live
// setup token. An existing record is reused only when it is inactive and has
// no membership at all; an active principal with this email is a conflict.
func (s *UserService) CreateProvisional(ctx context.Context, name, email string) (*model.User, string, error) {
	setupToken, err := util.GenerateCapabilityToken()
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to generate setup token", err)
	}
	expiresAt := time.Now().Add(s.cfg.Auth.SetupTokenTTL)

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to look up email", err)
	}
	if existing != nil {
		if existing.IsActive {
			return nil, "", apperr.New(apperr.KindDuplicateEmail, "a user with this email already exists")
		}
		pending, err := s.memberships.FindPendingByUser(ctx, existing.ID)
		if err != nil {
			return nil, "", apperr.Wrap(apperr.KindInternal, "failed to check memberships", err)
		}
		active, err := s.memberships.FindActiveByUser(ctx, existing.ID)
		if err != nil {
			return nil, "", apperr.Wrap(apperr.KindInternal, "failed to check memberships", err)
		}
		if pending != nil || len(active) > 0 {
			return nil, "", apperr.New(apperr.KindDuplicateEmail, "a user with this email already exists")
		}
		set := bson.M{
			"name":                name,
			"setupToken":          setupToken,
			"setupTokenExpiresAt": expiresAt,
		}
		if err := s.repo.Update(ctx, existing.ID, set, nil); err != nil {
			return nil, "", apperr.Wrap(apperr.KindInternal, "failed to refresh provisional user", err)
		}
		existing.Name = name
		existing.SetupToken = setupToken
		existing.SetupTokenExpiresAt = expiresAt
		return existing, setupToken, nil
	}

	user := &model.User{
		Name:                name,
		Email:               email,
		IsActive:            false,
		Preferences:         model.DefaultPreferences(),
		SetupToken:          setupToken,
		SetupTokenExpiresAt: expiresAt,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, "", apperr.New(apperr.KindDuplicateEmail, "a user with this email already exists")
		}
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to create provisional user", err)
	}
	return created, setupToken, nil
}

// VerifyPassword returns the principal iff it exists, is active and the
// password matches. A dummy hash verification runs on lookup misses so the
// caller cannot distinguish "no such email" from "wrong password" by timing.
func (s *UserService) VerifyPassword(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to look up email", err)
	}
	if user == nil || user.PasswordHash == "" {
		util.DummyVerify(password)
		return nil, apperr.New(apperr.KindInvalidCredentials, "invalid email or password")
	}
	if !util.VerifyPassword(password, user.PasswordHash) {
		return nil, apperr.New(apperr.KindInvalidCredentials, "invalid email or password")
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.KindSetupIncomplete, "account setup is not complete")
	}
	return user, nil
}

// tokenExpired treats the stored instant itself as expired.
func tokenExpired(expiresAt time.Time) bool {
	return !time.Now().Before(expiresAt)
}

// ConsumeSetupToken activates a provisioned principal: atomically sets the
// password hash, clears the token and flips the activation flag.
func (s *UserService) ConsumeSetupToken(ctx context.Context, tokenStr, password string) (*model.User, error) {
	if err := util.ValidatePassword(password); err != nil {
		return nil, apperr.New(apperr.KindValidation, err.Error())
	}
	user, err := s.repo.FindBySetupToken(ctx, tokenStr)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to look up setup token", err)
	}
	if user == nil || !util.ConstantTimeEquals(user.SetupToken, tokenStr) {
		return nil, apperr.New(apperr.KindInvalidSetupToken, "invalid or expired setup token")
	}
	if tokenExpired(user.SetupTokenExpiresAt) {
		return nil, apperr.New(apperr.KindInvalidSetupToken, "invalid or expired setup token")
	}
	if user.IsActive {
		return nil, apperr.New(apperr.KindInvalidSetupToken, "account is already active")
	}

	hash, err := util.HashPassword(password, s.cfg.Auth.BCryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	set := bson.M{"passwordHash": hash, "isActive": true}
	unset := bson.M{"setupToken": "", "setupTokenExpiresAt": ""}
	if err := s.repo.Update(ctx, user.ID, set, unset); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to activate user", err)
	}
	user.PasswordHash = hash
	user.IsActive = true
	user.SetupToken = ""
	return user, nil
}

// IssueResetToken attaches a short-lived reset token to the account with
// this email. Returns ("", nil, nil) when the email is unknown; callers must
// not reveal which case occurred.
func (s *UserService) IssueResetToken(ctx context.Context, email string) (string, *model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "failed to look up email", err)
	}
	if user == nil {
		return "", nil, nil
	}
	resetToken, err := util.GenerateCapabilityToken()
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "failed to generate reset token", err)
	}
	set := bson.M{
		"resetToken":          resetToken,
		"resetTokenExpiresAt": time.Now().Add(s.cfg.Auth.ResetTokenTTL),
	}
	if err := s.repo.Update(ctx, user.ID, set, nil); err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "failed to store reset token", err)
	}
	return resetToken, user, nil
}

// ConsumeResetToken sets a new password. Unlike setup tokens the principal
// may already be active; an inactive principal is activated as a side
// effect.
func (s *UserService) ConsumeResetToken(ctx context.Context, tokenStr, password string) (*model.User, error) {
	if err := util.ValidatePassword(password); err != nil {
		return nil, apperr.New(apperr.KindValidation, err.Error())
	}
	user, err := s.repo.FindByResetToken(ctx, tokenStr)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to look up reset token", err)
	}
	if user == nil || !util.ConstantTimeEquals(user.ResetToken, tokenStr) {
		return nil, apperr.New(apperr.KindInvalidSetupToken, "invalid or expired reset token")
	}
	if tokenExpired(user.ResetTokenExpiresAt) {
		return nil, apperr.New(apperr.KindInvalidSetupToken, "invalid or expired reset token")
	}

	hash, err := util.HashPassword(password, s.cfg.Auth.BCryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	set := bson.M{"passwordHash": hash, "isActive": true}
	unset := bson.M{"resetToken": "", "resetTokenExpiresAt": "", "setupToken": "", "setupTokenExpiresAt": ""}
	if err := s.repo.Update(ctx, user.ID, set, unset); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to reset password", err)
	}
	user.PasswordHash = hash
	user.IsActive = true
	user.ResetToken = ""
	user.SetupToken = ""
	return user, nil
}

// UpdateOrgRefs persists the active/default organization references. Zero
// ids clear the corresponding reference.
func (s *UserService) UpdateOrgRefs(ctx context.Context, userID, activeOrgID, defaultOrgID primitive.ObjectID) error {
	set := bson.M{}
	unset := bson.M{}
	if activeOrgID.IsZero() {
		unset["activeOrgId"] = ""
	} else {
		set["activeOrgId"] = activeOrgID
	}
	if defaultOrgID.IsZero() {
		unset["defaultOrgId"] = ""
	} else {
		set["defaultOrgId"] = defaultOrgID
	}
	if err := s.repo.Update(ctx, userID, set, unset); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update organization references", err)
	}
	return nil
}

// UpdateActiveOrg persists only the active-organization reference.
func (s *UserService) UpdateActiveOrg(ctx context.Context, userID, orgID primitive.ObjectID) error {
	if err := s.repo.Update(ctx, userID, bson.M{"activeOrgId": orgID}, nil); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update active organization", err)
	}
	return nil
}

// UpdateLastLogin stamps a successful login.
func (s *UserService) UpdateLastLogin(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.repo.Update(ctx, userID, bson.M{"lastLoginAt": time.Now()}, nil); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update last login", err)
	}
	return nil
}

// UpdatePreferences replaces the principal's preferences.
func (s *UserService) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs model.UserPreferences) error {
	if err := s.repo.Update(ctx, userID, bson.M{"preferences": prefs}, nil); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update preferences", err)
	}
	return nil
}
