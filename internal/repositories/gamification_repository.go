package repositories

import (
	"context"
	"time"

	"github.com/civiclens/app/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PointsPerPost is awarded by the "user made a post" side-effect.
const PointsPerPost = 50

// GamificationRepository defines the interface for points-record operations.
// The UI treats records as read-only except through RecordPost.
type GamificationRepository interface {
	GetRecord(ctx context.Context, userID string) (*models.GamificationRecord, error)
	TopByPoints(ctx context.Context, limit int64) ([]models.GamificationRecord, error)
	// RecordPost applies the "user made a post" side-effect: points award,
	// streak-day marker, streak counters. Best-effort; callers log failures
	// and never roll back the post itself.
	RecordPost(ctx context.Context, userID string) error
}

// MongoGamificationRepository implements GamificationRepository for MongoDB
type MongoGamificationRepository struct {
	collection *mongo.Collection
}

// NewMongoGamificationRepository creates a new MongoGamificationRepository
func NewMongoGamificationRepository(db *mongo.Database) *MongoGamificationRepository {
	return &MongoGamificationRepository{collection: db.Collection("gamification")}
}

// GetRecord retrieves a user's record, defaulting to the zero-state when the
// record does not exist yet.
func (r *MongoGamificationRepository) GetRecord(ctx context.Context, userID string) (*models.GamificationRecord, error) {
	var record models.GamificationRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.ZeroGamificationRecord(userID), nil
		}
		return nil, err
	}
	return &record, nil
}

// TopByPoints retrieves the highest-scoring records, points descending
func (r *MongoGamificationRepository) TopByPoints(ctx context.Context, limit int64) ([]models.GamificationRecord, error) {
	var records []models.GamificationRecord
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "points", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// RecordPost upserts the user's record with the post award and today's streak
// marker, then recomputes the streak counters from the stored markers.
func (r *MongoGamificationRepository) RecordPost(ctx context.Context, userID string) error {
	today := time.Now().Format("2006-01-02")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	record, err := r.GetRecord(ctx, userID)
	if err != nil {
		return err
	}

	streak := 1
	if record.StreakDays[yesterday] {
		streak = record.CurrentStreak + 1
	} else if record.StreakDays[today] {
		streak = record.CurrentStreak
	}
	longest := record.LongestStreak
	if streak > longest {
		longest = streak
	}

	update := bson.M{
		"$inc": bson.M{"points": PointsPerPost},
		"$set": bson.M{
			"user_id":                        userID,
			"streak_days." + today:           true,
			"current_streak":                 streak,
			"longest_streak":                 longest,
			"updated_at":                     time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, opts)
	return err
}
