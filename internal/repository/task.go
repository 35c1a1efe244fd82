package repository

import (
	"go.mongodb.org/mongo-driver/mongo"

	"horizon/internal/model"
	"horizon/pkg/generic"
)

// ITaskRepository is the tenant-scoped task collection.
type ITaskRepository = generic.TenantRepository[*model.Task]

func NewTaskRepository(db *mongo.Database) ITaskRepository {
	return generic.NewTenantRepository[*model.Task](db.Collection("tasks"))
}
