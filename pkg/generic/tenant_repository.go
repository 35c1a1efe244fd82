package generic

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a record is absent or belongs to a different
// organization. The two cases are indistinguishable by design.
var ErrNotFound = errors.New("record not found")

// TenantRepository is the contract every domain collection honors: inserts
// force the caller's organization id, and every read, update, delete and
// aggregation is confined to it.
type TenantRepository[T TenantEntity] interface {
	Insert(ctx context.Context, orgID primitive.ObjectID, entity T) (T, error)
	GetByID(ctx context.Context, orgID, id primitive.ObjectID) (T, error)
	Find(ctx context.Context, orgID primitive.ObjectID, filter bson.M, opts ...*options.FindOptions) ([]T, error)
	Replace(ctx context.Context, orgID primitive.ObjectID, entity T) error
	Delete(ctx context.Context, orgID, id primitive.ObjectID) error
	Count(ctx context.Context, orgID primitive.ObjectID, filter bson.M) (int64, error)
	Aggregate(ctx context.Context, orgID primitive.ObjectID, pipeline mongo.Pipeline, results interface{}) error
}

// MongoTenantRepository implements TenantRepository over one collection.
type MongoTenantRepository[T TenantEntity] struct {
	Collection *mongo.Collection
}

func NewTenantRepository[T TenantEntity](collection *mongo.Collection) *MongoTenantRepository[T] {
	return &MongoTenantRepository[T]{Collection: collection}
}

// scoped merges the caller's filter with the organization clause. The org
// clause is applied last so callers cannot override it.
func scoped(orgID primitive.ObjectID, filter bson.M) bson.M {
	merged := bson.M{}
	for k, v := range filter {
		merged[k] = v
	}
	merged["orgId"] = orgID
	return merged
}

func (r *MongoTenantRepository[T]) Insert(ctx context.Context, orgID primitive.ObjectID, entity T) (T, error) {
	entity.SetID(primitive.NewObjectID())
	entity.SetOrgID(orgID)
	if _, err := r.Collection.InsertOne(ctx, entity); err != nil {
		var zero T
		return zero, err
	}
	return entity, nil
}

func (r *MongoTenantRepository[T]) GetByID(ctx context.Context, orgID, id primitive.ObjectID) (T, error) {
	var entity T
	err := r.Collection.FindOne(ctx, scoped(orgID, bson.M{"_id": id})).Decode(&entity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity, ErrNotFound
		}
		return entity, err
	}
	return entity, nil
}

func (r *MongoTenantRepository[T]) Find(ctx context.Context, orgID primitive.ObjectID, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := r.Collection.Find(ctx, scoped(orgID, filter), opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []T
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoTenantRepository[T]) Replace(ctx context.Context, orgID primitive.ObjectID, entity T) error {
	entity.SetOrgID(orgID)
	res, err := r.Collection.ReplaceOne(ctx, scoped(orgID, bson.M{"_id": entity.GetID()}), entity)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTenantRepository[T]) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, scoped(orgID, bson.M{"_id": id}))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTenantRepository[T]) Count(ctx context.Context, orgID primitive.ObjectID, filter bson.M) (int64, error) {
	return r.Collection.CountDocuments(ctx, scoped(orgID, filter))
}

// Aggregate runs pipeline with an organization match prepended as the first
// stage.
func (r *MongoTenantRepository[T]) Aggregate(ctx context.Context, orgID primitive.ObjectID, pipeline mongo.Pipeline, results interface{}) error {
	full := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"orgId": orgID}}},
	}, pipeline...)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cursor, err := r.Collection.Aggregate(ctx, full)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, results)
}
