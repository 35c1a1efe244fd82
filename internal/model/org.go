package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SupportedCurrencies is the closed set of organization currencies.
var SupportedCurrencies = []string{"INR", "USD", "EUR", "GBP", "CAD", "AUD"}

// IsSupportedCurrency reports whether code is in the closed currency set.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// OrgSettings holds organization-level formatting defaults.
type OrgSettings struct {
	DateFormat      string `bson:"dateFormat" json:"dateFormat"`
	FiscalYearStart string `bson:"fiscalYearStart" json:"fiscalYearStart"`
}

// Organization is a tenant. All domain records carry its ID and no data is
// visible across organizations.
type Organization struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Industry  string             `bson:"industry,omitempty" json:"industry,omitempty"`
	Timezone  string             `bson:"timezone" json:"timezone"`
	Currency  string             `bson:"currency" json:"currency"`
	Settings  OrgSettings        `bson:"settings" json:"settings"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DefaultOrgSettings returns the settings applied to new organizations.
func DefaultOrgSettings() OrgSettings {
	return OrgSettings{
		DateFormat:      "YYYY-MM-DD",
		FiscalYearStart: "04-01",
	}
}
