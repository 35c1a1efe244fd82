package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the role a principal holds within an organization.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// IsValid reports whether r is a recognized role.
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleMember
}

// AtLeast reports whether r sits at or above required in the role lattice
// {member < owner}.
func (r Role) AtLeast(required Role) bool {
	if required == RoleOwner {
		return r == RoleOwner
	}
	return r.IsValid()
}

// MembershipStatus is the state of a (user, organization) edge.
type MembershipStatus string

const (
	MembershipActive       MembershipStatus = "active"
	MembershipPendingSetup MembershipStatus = "pending_user_setup"
	MembershipInactive     MembershipStatus = "inactive"
)

// Membership links a user to an organization with a role. The
// (UserID, OrgID) pair is unique.
type Membership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	OrgID     primitive.ObjectID `bson:"orgId" json:"orgId"`
	Role      Role               `bson:"role" json:"role"`
	Status    MembershipStatus   `bson:"status" json:"status"`
	InvitedBy primitive.ObjectID `bson:"invitedBy,omitempty" json:"invitedBy,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the membership grants access right now.
func (m *Membership) IsActive() bool {
	return m.Status == MembershipActive
}

// MemberResponse is one row of an organization's member listing.
type MemberResponse struct {
	UserID    string           `json:"userId"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Status    MembershipStatus `json:"status"`
	JoinedAt  time.Time        `json:"joinedAt"`
	InvitedBy string           `json:"invitedBy,omitempty"`
}
