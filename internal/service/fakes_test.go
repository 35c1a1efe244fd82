package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"horizon/internal/config"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/pkg/generic"
)

// In-memory stand-ins for the Mongo repositories. They honor the same
// contracts: (nil, nil) on lookup misses, duplicate-key errors on unique
// index collisions, mongo.ErrNoDocuments on unmatched updates.

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			TokenTTL:      time.Hour,
			BCryptCost:    10,
			SetupTokenTTL: 7 * 24 * time.Hour,
			ResetTokenTTL: time.Hour,
		},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}
}

type fakeTxnRunner struct{}

func (fakeTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*model.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, duplicateKeyErr()
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *fakeUserRepo) findOne(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(func(u *model.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findOne(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) FindBySetupToken(_ context.Context, token string) (*model.User, error) {
	return r.findOne(func(u *model.User) bool { return u.SetupToken != "" && u.SetupToken == token })
}

func (r *fakeUserRepo) FindByResetToken(_ context.Context, token string) (*model.User, error) {
	return r.findOne(func(u *model.User) bool { return u.ResetToken != "" && u.ResetToken == token })
}

func (r *fakeUserRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M, unset bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for k, v := range set {
		switch k {
		case "name":
			u.Name = v.(string)
		case "passwordHash":
			u.PasswordHash = v.(string)
		case "isActive":
			u.IsActive = v.(bool)
		case "setupToken":
			u.SetupToken = v.(string)
		case "setupTokenExpiresAt":
			u.SetupTokenExpiresAt = v.(time.Time)
		case "resetToken":
			u.ResetToken = v.(string)
		case "resetTokenExpiresAt":
			u.ResetTokenExpiresAt = v.(time.Time)
		case "activeOrgId":
			u.ActiveOrgID = v.(primitive.ObjectID)
		case "defaultOrgId":
			u.DefaultOrgID = v.(primitive.ObjectID)
		case "lastLoginAt":
			u.LastLoginAt = v.(time.Time)
		case "preferences":
			u.Preferences = v.(model.UserPreferences)
		}
	}
	for k := range unset {
		switch k {
		case "setupToken":
			u.SetupToken = ""
		case "setupTokenExpiresAt":
			u.SetupTokenExpiresAt = time.Time{}
		case "resetToken":
			u.ResetToken = ""
		case "resetTokenExpiresAt":
			u.ResetTokenExpiresAt = time.Time{}
		case "activeOrgId":
			u.ActiveOrgID = primitive.NilObjectID
		case "defaultOrgId":
			u.DefaultOrgID = primitive.NilObjectID
		}
	}
	u.UpdatedAt = time.Now()
	return nil
}

// get returns the stored record for assertions.
func (r *fakeUserRepo) get(id primitive.ObjectID) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

type fakeMembershipRepo struct {
	mu    sync.Mutex
	edges map[primitive.ObjectID]*model.Membership
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{edges: map[primitive.ObjectID]*model.Membership{}}
}

func (r *fakeMembershipRepo) Create(_ context.Context, m *model.Membership) (*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if e.UserID == m.UserID && e.OrgID == m.OrgID {
			return nil, duplicateKeyErr()
		}
	}
	m.ID = primitive.NewObjectID()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	cp := *m
	r.edges[m.ID] = &cp
	return m, nil
}

func (r *fakeMembershipRepo) FindByUserAndOrg(_ context.Context, userID, orgID primitive.ObjectID) (*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if e.UserID == userID && e.OrgID == orgID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMembershipRepo) FindByOrg(_ context.Context, orgID primitive.ObjectID) ([]*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Membership
	for _, e := range r.edges {
		if e.OrgID == orgID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) FindActiveByUser(_ context.Context, userID primitive.ObjectID) ([]*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Membership
	for _, e := range r.edges {
		if e.UserID == userID && e.Status == model.MembershipActive {
			cp := *e
			out = append(out, &cp)
		}
	}
	// Most recently updated first, matching the Mongo sort.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].UpdatedAt.After(out[j-1].UpdatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) FindPendingByUser(_ context.Context, userID primitive.ObjectID) (*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if e.UserID == userID && e.Status == model.MembershipPendingSetup {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMembershipRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.edges[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for k, v := range set {
		switch k {
		case "status":
			e.Status = v.(model.MembershipStatus)
		case "role":
			e.Role = v.(model.Role)
		}
	}
	e.UpdatedAt = time.Now()
	return nil
}

func (r *fakeMembershipRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.edges[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.edges, id)
	return nil
}

func (r *fakeMembershipRepo) CountActiveOwners(_ context.Context, orgID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.edges {
		if e.OrgID == orgID && e.Role == model.RoleOwner && e.Status == model.MembershipActive {
			n++
		}
	}
	return n, nil
}

// touch backdates or forwards an edge's updatedAt for recency-ordering tests.
func (r *fakeMembershipRepo) touch(id primitive.ObjectID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.edges[id]; ok {
		e.UpdatedAt = at
	}
}

type fakeOrgRepo struct {
	mu   sync.Mutex
	orgs map[primitive.ObjectID]*model.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: map[primitive.ObjectID]*model.Organization{}}
}

func (r *fakeOrgRepo) Create(_ context.Context, org *model.Organization) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	org.ID = primitive.NewObjectID()
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	cp := *org
	r.orgs[org.ID] = &cp
	return org, nil
}

func (r *fakeOrgRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if org, ok := r.orgs[id]; ok {
		cp := *org
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeOrgRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.orgs[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for k, v := range set {
		switch k {
		case "name":
			org.Name = v.(string)
		case "industry":
			org.Industry = v.(string)
		case "timezone":
			org.Timezone = v.(string)
		case "currency":
			org.Currency = v.(string)
		case "settings":
			org.Settings = v.(model.OrgSettings)
		}
	}
	org.UpdatedAt = time.Now()
	return nil
}

// fakeTenantRepo is an in-memory TenantRepository. matches applies the
// caller's filter to an entity; the org clause is always enforced.
type fakeTenantRepo[T generic.TenantEntity] struct {
	mu      sync.Mutex
	items   map[primitive.ObjectID]T
	matches func(T, bson.M) bool
}

func newFakeTenantRepo[T generic.TenantEntity](matches func(T, bson.M) bool) *fakeTenantRepo[T] {
	return &fakeTenantRepo[T]{items: map[primitive.ObjectID]T{}, matches: matches}
}

func (r *fakeTenantRepo[T]) Insert(_ context.Context, orgID primitive.ObjectID, entity T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity.SetID(primitive.NewObjectID())
	entity.SetOrgID(orgID)
	r.items[entity.GetID()] = entity
	return entity, nil
}

func (r *fakeTenantRepo[T]) GetByID(_ context.Context, orgID, id primitive.ObjectID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok || e.GetOrgID() != orgID {
		var zero T
		return zero, generic.ErrNotFound
	}
	return e, nil
}

func (r *fakeTenantRepo[T]) Find(_ context.Context, orgID primitive.ObjectID, filter bson.M, _ ...*options.FindOptions) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, e := range r.items {
		if e.GetOrgID() != orgID {
			continue
		}
		if r.matches != nil && !r.matches(e, filter) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeTenantRepo[T]) Replace(_ context.Context, orgID primitive.ObjectID, entity T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[entity.GetID()]
	if !ok || existing.GetOrgID() != orgID {
		return generic.ErrNotFound
	}
	entity.SetOrgID(orgID)
	r.items[entity.GetID()] = entity
	return nil
}

func (r *fakeTenantRepo[T]) Delete(_ context.Context, orgID, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok || e.GetOrgID() != orgID {
		return generic.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeTenantRepo[T]) Count(_ context.Context, orgID primitive.ObjectID, filter bson.M) (int64, error) {
	all, _ := r.Find(context.Background(), orgID, filter)
	return int64(len(all)), nil
}

func (r *fakeTenantRepo[T]) Aggregate(_ context.Context, _ primitive.ObjectID, _ mongo.Pipeline, _ interface{}) error {
	return errors.New("aggregation not supported by the in-memory fake")
}

// Compile-time checks that the fakes satisfy the repository contracts.
var (
	_ repository.IUserRepository       = (*fakeUserRepo)(nil)
	_ repository.IMembershipRepository = (*fakeMembershipRepo)(nil)
	_ repository.IOrgRepository        = (*fakeOrgRepo)(nil)
	_ repository.TxnRunner             = fakeTxnRunner{}
)
