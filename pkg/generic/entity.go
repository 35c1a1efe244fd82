package generic

import "go.mongodb.org/mongo-driver/bson/primitive"

// Entity is implemented by every persisted model.
type Entity interface {
	GetID() primitive.ObjectID
	SetID(primitive.ObjectID)
}

// TenantEntity is an Entity confined to one organization. Repositories built
// on it never read or write outside the organization they are handed.
type TenantEntity interface {
	Entity
	GetOrgID() primitive.ObjectID
	SetOrgID(primitive.ObjectID)
}
