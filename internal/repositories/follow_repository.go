package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/civiclens/app/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FollowRepository defines the interface for follow edge operations. Each edge
// is materialized twice: in the follower's "following" collection and the
// followee's "followers" collection. The two writes are independent calls, as
// are the counter updates on the User documents; there is no transaction
// spanning them.
type FollowRepository interface {
	CreateFollowingEdge(ctx context.Context, followerID, followeeID string) error
	CreateFollowersEdge(ctx context.Context, followerID, followeeID string) error
	DeleteFollowingEdge(ctx context.Context, followerID, followeeID string) error
	DeleteFollowersEdge(ctx context.Context, followerID, followeeID string) error
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
	HasFollowingEdge(ctx context.Context, followerID, followeeID string) (bool, error)
	HasFollowersEdge(ctx context.Context, followerID, followeeID string) (bool, error)
}

// MongoFollowRepository implements FollowRepository for MongoDB
type MongoFollowRepository struct {
	following *mongo.Collection
	followers *mongo.Collection
}

// NewMongoFollowRepository creates a new MongoFollowRepository
func NewMongoFollowRepository(db *mongo.Database) *MongoFollowRepository {
	return &MongoFollowRepository{
		following: db.Collection("following"),
		followers: db.Collection("followers"),
	}
}

func newEdge(followerID, followeeID string) *models.FollowEdge {
	return &models.FollowEdge{
		ID:         uuid.NewString(),
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now(),
	}
}

// CreateFollowingEdge writes the follower-side edge document
func (r *MongoFollowRepository) CreateFollowingEdge(ctx context.Context, followerID, followeeID string) error {
	_, err := r.following.InsertOne(ctx, newEdge(followerID, followeeID))
	return err
}

// CreateFollowersEdge writes the followee-side edge document
func (r *MongoFollowRepository) CreateFollowersEdge(ctx context.Context, followerID, followeeID string) error {
	_, err := r.followers.InsertOne(ctx, newEdge(followerID, followeeID))
	return err
}

// DeleteFollowingEdge removes the follower-side edge document
func (r *MongoFollowRepository) DeleteFollowingEdge(ctx context.Context, followerID, followeeID string) error {
	res, err := r.following.DeleteOne(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("following edge not found")
	}
	return nil
}

// DeleteFollowersEdge removes the followee-side edge document
func (r *MongoFollowRepository) DeleteFollowersEdge(ctx context.Context, followerID, followeeID string) error {
	res, err := r.followers.DeleteOne(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("followers edge not found")
	}
	return nil
}

// FollowingIDs returns the ids the given user follows, from the follower-side
// edge documents. Seeds the session's local following set at sign-in.
func (r *MongoFollowRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	cursor, err := r.following.Find(ctx, bson.M{"follower_id": followerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var edges []models.FollowEdge
	if err = cursor.All(ctx, &edges); err != nil {
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.FolloweeID
	}
	return ids, nil
}

// HasFollowingEdge reports whether the follower-side edge document exists
func (r *MongoFollowRepository) HasFollowingEdge(ctx context.Context, followerID, followeeID string) (bool, error) {
	count, err := r.following.CountDocuments(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID})
	return count > 0, err
}

// HasFollowersEdge reports whether the followee-side edge document exists
func (r *MongoFollowRepository) HasFollowersEdge(ctx context.Context, followerID, followeeID string) (bool, error) {
	count, err := r.followers.CountDocuments(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID})
	return count > 0, err
}
