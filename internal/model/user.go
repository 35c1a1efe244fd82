package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserPreferences holds per-user display and notification settings.
type UserPreferences struct {
	Theme              string `bson:"theme" json:"theme"`
	Locale             string `bson:"locale" json:"locale"`
	EmailNotifications bool   `bson:"emailNotifications" json:"emailNotifications"`
	InAppNotifications bool   `bson:"inAppNotifications" json:"inAppNotifications"`
}

// DefaultPreferences returns the preferences applied to new accounts.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:              "system",
		Locale:             "en-US",
		EmailNotifications: true,
		InAppNotifications: true,
	}
}

// User is a principal. PasswordHash is present iff IsActive is true; a live
// setup token implies IsActive is false.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`
	IsActive     bool               `bson:"isActive" json:"isActive"`

	ActiveOrgID  primitive.ObjectID `bson:"activeOrgId,omitempty" json:"activeOrgId,omitempty"`
	DefaultOrgID primitive.ObjectID `bson:"defaultOrgId,omitempty" json:"defaultOrgId,omitempty"`

	Preferences UserPreferences `bson:"preferences" json:"preferences"`

	SetupToken          string    `bson:"setupToken,omitempty" json:"-"`
	SetupTokenExpiresAt time.Time `bson:"setupTokenExpiresAt,omitempty" json:"-"`
	ResetToken          string    `bson:"resetToken,omitempty" json:"-"`
	ResetTokenExpiresAt time.Time `bson:"resetTokenExpiresAt,omitempty" json:"-"`

	LastLoginAt time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UserResponse is the wire shape for a principal. Hashes and token material
// never leave the process.
type UserResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	IsActive     bool            `json:"isActive"`
	ActiveOrgID  string          `json:"activeOrgId,omitempty"`
	DefaultOrgID string          `json:"defaultOrgId,omitempty"`
	Preferences  UserPreferences `json:"preferences"`
	LastLoginAt  time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ToResponse converts a User to its wire shape (secret material excluded).
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:          u.ID.Hex(),
		Name:        u.Name,
		Email:       u.Email,
		IsActive:    u.IsActive,
		Preferences: u.Preferences,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if !u.ActiveOrgID.IsZero() {
		resp.ActiveOrgID = u.ActiveOrgID.Hex()
	}
	if !u.DefaultOrgID.IsZero() {
		resp.DefaultOrgID = u.DefaultOrgID.Hex()
	}
	return resp
}
