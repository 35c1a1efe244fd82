package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"horizon/internal/model"
	"horizon/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Static lookup stubs. Only the Find methods the resolver touches are backed
// by data; the rest satisfy the interfaces.

type stubUsers struct {
	byID map[primitive.ObjectID]*model.User
}

func (s *stubUsers) Create(context.Context, *model.User) (*model.User, error) { return nil, nil }
func (s *stubUsers) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.byID[id], nil
}
func (s *stubUsers) FindByEmail(context.Context, string) (*model.User, error)      { return nil, nil }
func (s *stubUsers) FindBySetupToken(context.Context, string) (*model.User, error) { return nil, nil }
func (s *stubUsers) FindByResetToken(context.Context, string) (*model.User, error) { return nil, nil }
func (s *stubUsers) Update(context.Context, primitive.ObjectID, bson.M, bson.M) error {
	return nil
}

type stubMemberships struct {
	edges []*model.Membership
}

func (s *stubMemberships) Create(context.Context, *model.Membership) (*model.Membership, error) {
	return nil, nil
}
func (s *stubMemberships) FindByUserAndOrg(_ context.Context, userID, orgID primitive.ObjectID) (*model.Membership, error) {
	for _, e := range s.edges {
		if e.UserID == userID && e.OrgID == orgID {
			return e, nil
		}
	}
	return nil, nil
}
func (s *stubMemberships) FindByOrg(context.Context, primitive.ObjectID) ([]*model.Membership, error) {
	return nil, nil
}
func (s *stubMemberships) FindActiveByUser(context.Context, primitive.ObjectID) ([]*model.Membership, error) {
	return nil, nil
}
func (s *stubMemberships) FindPendingByUser(context.Context, primitive.ObjectID) (*model.Membership, error) {
	return nil, nil
}
func (s *stubMemberships) Update(context.Context, primitive.ObjectID, bson.M) error { return nil }
func (s *stubMemberships) Delete(context.Context, primitive.ObjectID) error         { return nil }
func (s *stubMemberships) CountActiveOwners(context.Context, primitive.ObjectID) (int64, error) {
	return 0, nil
}

type stubOrgs struct {
	byID map[primitive.ObjectID]*model.Organization
}

func (s *stubOrgs) Create(context.Context, *model.Organization) (*model.Organization, error) {
	return nil, nil
}
func (s *stubOrgs) FindByID(_ context.Context, id primitive.ObjectID) (*model.Organization, error) {
	return s.byID[id], nil
}
func (s *stubOrgs) Update(context.Context, primitive.ObjectID, bson.M) error { return nil }

type resolverFixture struct {
	tokens *token.Service
	router *gin.Engine

	activeUser   *model.User
	inactiveUser *model.User
	org          *model.Organization
	ownerID      primitive.ObjectID
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	tokens, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)

	orgID := primitive.NewObjectID()
	org := &model.Organization{ID: orgID, Name: "Acme", Timezone: "UTC", Currency: "USD"}

	owner := &model.User{ID: primitive.NewObjectID(), Name: "Owner", Email: "owner@x.io", IsActive: true}
	member := &model.User{ID: primitive.NewObjectID(), Name: "Member", Email: "member@x.io", IsActive: true}
	inactive := &model.User{ID: primitive.NewObjectID(), Name: "Pending", Email: "pending@x.io", IsActive: false}

	users := &stubUsers{byID: map[primitive.ObjectID]*model.User{
		owner.ID: owner, member.ID: member, inactive.ID: inactive,
	}}
	memberships := &stubMemberships{edges: []*model.Membership{
		{ID: primitive.NewObjectID(), UserID: owner.ID, OrgID: orgID, Role: model.RoleOwner, Status: model.MembershipActive},
		{ID: primitive.NewObjectID(), UserID: member.ID, OrgID: orgID, Role: model.RoleMember, Status: model.MembershipActive},
	}}
	orgs := &stubOrgs{byID: map[primitive.ObjectID]*model.Organization{orgID: org}}

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"email": CurrentUser(c).Email}) }

	router := gin.New()
	authed := router.Group("/", Authenticate(tokens, users, memberships, orgs))
	authed.GET("/me", ok)
	authed.GET("/activated", RequireActivated(), ok)
	authed.GET("/scoped", RequireActivated(), RequireActiveOrganization(), ok)
	authed.GET("/owner-only", RequireActivated(), RequireActiveOrganization(), RequireRole(model.RoleOwner), ok)

	return &resolverFixture{
		tokens:       tokens,
		router:       router,
		activeUser:   member,
		inactiveUser: inactive,
		org:          org,
		ownerID:      owner.ID,
	}
}

func (f *resolverFixture) do(t *testing.T, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *resolverFixture) mint(t *testing.T, userID, orgID primitive.ObjectID) string {
	t.Helper()
	signed, err := f.tokens.Mint(userID, orgID)
	require.NoError(t, err)
	return signed
}

func TestAuthenticateRejections(t *testing.T) {
	f := newResolverFixture(t)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, "/me", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := f.do(t, "/me", "garbage")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		short, err := token.NewService("test-secret", time.Nanosecond)
		require.NoError(t, err)
		signed, err := short.Mint(f.activeUser.ID, primitive.NilObjectID)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)

		rec := f.do(t, "/me", signed)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "token_expired")
	})

	t.Run("unknown principal", func(t *testing.T) {
		rec := f.do(t, "/me", f.mint(t, primitive.NewObjectID(), primitive.NilObjectID))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthenticateResolvesContext(t *testing.T) {
	f := newResolverFixture(t)

	t.Run("org-scoped token", func(t *testing.T) {
		rec := f.do(t, "/scoped", f.mint(t, f.activeUser.ID, f.org.ID))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("org-less token passes resolver but not the org gate", func(t *testing.T) {
		bearer := f.mint(t, f.activeUser.ID, primitive.NilObjectID)
		require.Equal(t, http.StatusOK, f.do(t, "/me", bearer).Code)

		rec := f.do(t, "/scoped", bearer)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "org_context_required")
	})

	t.Run("stale org reference degrades to org-less", func(t *testing.T) {
		bearer := f.mint(t, f.activeUser.ID, primitive.NewObjectID())
		require.Equal(t, http.StatusOK, f.do(t, "/me", bearer).Code)
		require.Equal(t, http.StatusForbidden, f.do(t, "/scoped", bearer).Code)
	})
}

func TestRequireActivated(t *testing.T) {
	f := newResolverFixture(t)
	bearer := f.mint(t, f.inactiveUser.ID, primitive.NilObjectID)

	// The self-inspection route is reachable, everything gated is not.
	require.Equal(t, http.StatusOK, f.do(t, "/me", bearer).Code)

	rec := f.do(t, "/activated", bearer)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "setup_incomplete")
}

func TestRequireRole(t *testing.T) {
	f := newResolverFixture(t)

	t.Run("member blocked from owner routes", func(t *testing.T) {
		rec := f.do(t, "/owner-only", f.mint(t, f.activeUser.ID, f.org.ID))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "insufficient_role")
	})

	t.Run("owner passes", func(t *testing.T) {
		rec := f.do(t, "/owner-only", f.mint(t, f.ownerID, f.org.ID))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestBearerToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	c.Request.Header.Set("Authorization", "Bearer abc123")
	require.Equal(t, "abc123", bearerToken(c))

	c.Request.Header.Set("Authorization", "bearer abc123")
	require.Equal(t, "abc123", bearerToken(c))

	c.Request.Header.Set("Authorization", "Basic abc123")
	require.Empty(t, bearerToken(c))

	c.Request.Header.Del("Authorization")
	require.Empty(t, bearerToken(c))
}
