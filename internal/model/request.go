package model

// RegisterOwnerRequest creates a principal, its organization and the first
// owner membership in one step.
type RegisterOwnerRequest struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required"`
	Password         string `json:"password" binding:"required"`
	OrganizationName string `json:"organizationName" binding:"required"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CompleteSetupRequest sets the initial password for a provisioned account.
type CompleteSetupRequest struct {
	Password string `json:"password" binding:"required"`
}

// SwitchOrgRequest changes the session's active organization.
type SwitchOrgRequest struct {
	OrganizationID string `json:"organizationId" binding:"required"`
}

// ProvisionMemberRequest invites a new member into the active organization.
type ProvisionMemberRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Role  Role   `json:"role"`
}

// ChangeRoleRequest updates a member's role.
type ChangeRoleRequest struct {
	NewRole Role `json:"newRole" binding:"required"`
}

// UpdateOrgRequest mutates the mutable organization fields. Nil fields are
// left untouched.
type UpdateOrgRequest struct {
	Name     *string      `json:"name,omitempty"`
	Industry *string      `json:"industry,omitempty"`
	Timezone *string      `json:"timezone,omitempty"`
	Currency *string      `json:"currency,omitempty"`
	Settings *OrgSettings `json:"settings,omitempty"`
}

// UpdatePreferencesRequest replaces the caller's preferences.
type UpdatePreferencesRequest struct {
	Theme              string `json:"theme" binding:"required"`
	Locale             string `json:"locale" binding:"required"`
	EmailNotifications bool   `json:"emailNotifications"`
	InAppNotifications bool   `json:"inAppNotifications"`
}

// RequestPasswordResetRequest starts a password reset.
type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}
