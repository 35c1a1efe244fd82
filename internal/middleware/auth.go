// Package middleware resolves the per-request context: it validates the
// bearer token, materializes the principal and, when the token carries one,
// the active organization and role. Gates downstream narrow the context or
// fail.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"horizon/internal/apperr"
	"horizon/internal/model"
	"horizon/internal/repository"
	"horizon/internal/token"
)

const (
	ctxUser       = "ctx.user"
	ctxOrg        = "ctx.org"
	ctxRole       = "ctx.role"
	ctxMembership = "ctx.membership"
)

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), model.NewErrorResponse(err.Error(), string(apperr.KindOf(err))))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate validates the session token and populates the request
// context. A token whose organization no longer maps to an active membership
// does not fail here; org and role stay unset and the org gate decides.
// Inactive principals pass through flagged so the self-inspection endpoint
// still works; RequireActivated rejects them everywhere else.
func Authenticate(tokens *token.Service, users repository.IUserRepository, memberships repository.IMembershipRepository, orgs repository.IOrgRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abort(c, apperr.New(apperr.KindUnauthenticated, "missing bearer token"))
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			abort(c, err)
			return
		}
		userID, orgID, err := claims.SubjectIDs()
		if err != nil {
			abort(c, err)
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			abort(c, apperr.Wrap(apperr.KindInternal, "failed to load user", err))
			return
		}
		if user == nil {
			abort(c, apperr.New(apperr.KindUnauthenticated, "unknown principal"))
			return
		}
		c.Set(ctxUser, user)

		if orgID.IsZero() {
			c.Next()
			return
		}
		edge, err := memberships.FindByUserAndOrg(c.Request.Context(), userID, orgID)
		if err != nil {
			abort(c, apperr.Wrap(apperr.KindInternal, "failed to load membership", err))
			return
		}
		if edge == nil || !edge.IsActive() {
			log.Warn().
				Str("userId", userID.Hex()).
				Str("orgId", orgID.Hex()).
				Msg("session token references org without active membership")
			c.Next()
			return
		}
		org, err := orgs.FindByID(c.Request.Context(), orgID)
		if err != nil {
			abort(c, apperr.Wrap(apperr.KindInternal, "failed to load organization", err))
			return
		}
		if org == nil {
			log.Warn().Str("orgId", orgID.Hex()).Msg("session token references missing org")
			c.Next()
			return
		}
		c.Set(ctxOrg, org)
		c.Set(ctxRole, edge.Role)
		c.Set(ctxMembership, edge)
		c.Next()
	}
}

// RequireActivated rejects principals that have not completed setup.
func RequireActivated() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abort(c, apperr.New(apperr.KindUnauthenticated, "not authenticated"))
			return
		}
		if !user.IsActive {
			abort(c, apperr.New(apperr.KindSetupIncomplete, "complete account setup first"))
			return
		}
		c.Next()
	}
}

// RequireActiveOrganization rejects requests whose session carries no
// resolvable organization context.
func RequireActiveOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentOrg(c) == nil {
			abort(c, apperr.New(apperr.KindOrgContextRequired, "an active organization is required"))
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose resolved role is not in the allowed
// set.
func RequireRole(allowed ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := currentRole(c)
		if !ok {
			abort(c, apperr.New(apperr.KindOrgContextRequired, "an active organization is required"))
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		abort(c, apperr.New(apperr.KindInsufficientRole, "insufficient role for this action"))
	}
}

// CurrentUser returns the resolved principal, or nil.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// CurrentOrg returns the resolved active organization, or nil.
func CurrentOrg(c *gin.Context) *model.Organization {
	if v, ok := c.Get(ctxOrg); ok {
		if o, ok := v.(*model.Organization); ok {
			return o
		}
	}
	return nil
}

func currentRole(c *gin.Context) (model.Role, bool) {
	if v, ok := c.Get(ctxRole); ok {
		if r, ok := v.(model.Role); ok {
			return r, true
		}
	}
	return "", false
}

// CurrentRole returns the resolved role, or empty.
func CurrentRole(c *gin.Context) model.Role {
	r, _ := currentRole(c)
	return r
}

// CurrentMembership returns the resolved membership edge, or nil.
func CurrentMembership(c *gin.Context) *model.Membership {
	if v, ok := c.Get(ctxMembership); ok {
		if m, ok := v.(*model.Membership); ok {
			return m
		}
	}
	return nil
}
