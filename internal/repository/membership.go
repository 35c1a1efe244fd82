package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"horizon/internal/model"
)

// IMembershipRepository defines membership-edge persistence. Find methods
// return (nil, nil) when no document matches.
type IMembershipRepository interface {
	Create(ctx context.Context, m *model.Membership) (*model.Membership, error)
	FindByUserAndOrg(ctx context.Context, userID, orgID primitive.ObjectID) (*model.Membership, error)
	FindByOrg(ctx context.Context, orgID primitive.ObjectID) ([]*model.Membership, error)
	FindActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Membership, error)
	FindPendingByUser(ctx context.Context, userID primitive.ObjectID) (*model.Membership, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountActiveOwners(ctx context.Context, orgID primitive.ObjectID) (int64, error)
}

// MembershipRepository implements membership persistence.
type MembershipRepository struct {
	collection *mongo.Collection
}

func NewMembershipRepository(db *mongo.Database) IMembershipRepository {
	return &MembershipRepository{collection: db.Collection("memberships")}
}

func (r *MembershipRepository) Create(ctx context.Context, m *model.Membership) (*model.Membership, error) {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	res, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return m, nil
}

func (r *MembershipRepository) FindByUserAndOrg(ctx context.Context, userID, orgID primitive.ObjectID) (*model.Membership, error) {
	var m *model.Membership
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "orgId": orgID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *MembershipRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.Membership, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.Membership
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MembershipRepository) FindByOrg(ctx context.Context, orgID primitive.ObjectID) ([]*model.Membership, error) {
	return r.find(ctx, bson.M{"orgId": orgID})
}

// FindActiveByUser lists a principal's active memberships, most recently
// updated first.
func (r *MembershipRepository) FindActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]*model.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return r.find(ctx, bson.M{"userId": userID, "status": model.MembershipActive}, opts)
}

// FindPendingByUser returns the principal's pending_user_setup membership.
// At most one exists per principal.
func (r *MembershipRepository) FindPendingByUser(ctx context.Context, userID primitive.ObjectID) (*model.Membership, error) {
	var m *model.Membership
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "status": model.MembershipPendingSetup}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *MembershipRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountActiveOwners counts memberships with role=owner and status=active in
// one organization. The sole-owner check reads this inside the same
// transaction that mutates the edge.
func (r *MembershipRepository) CountActiveOwners(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"orgId":  orgID,
		"role":   model.RoleOwner,
		"status": model.MembershipActive,
	})
}
