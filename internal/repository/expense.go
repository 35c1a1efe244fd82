package repository

import (
	"go.mongodb.org/mongo-driver/mongo"

	"horizon/internal/model"
	"horizon/pkg/generic"
)

// IExpenseRepository is the tenant-scoped expense collection.
type IExpenseRepository = generic.TenantRepository[*model.Expense]

func NewExpenseRepository(db *mongo.Database) IExpenseRepository {
	return generic.NewTenantRepository[*model.Expense](db.Collection("expenses"))
}
