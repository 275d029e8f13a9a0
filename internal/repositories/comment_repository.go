package repositories

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/civiclens/app/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository defines the interface for comment subcollection operations
type CommentRepository interface {
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	// Subscribe streams the post's full comment thread, oldest first, after
	// every change until ctx is cancelled.
	Subscribe(ctx context.Context, postID string) (<-chan []models.Comment, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// ListByPost retrieves a post's comments ordered by creation time ascending
func (r *MongoCommentRepository) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"post_id": postID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment appends a comment document
func (r *MongoCommentRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

// Subscribe opens a change stream filtered to one post's comments and emits a
// fresh ascending snapshot after every change, plus one initial snapshot.
func (r *MongoCommentRepository) Subscribe(ctx context.Context, postID string) (<-chan []models.Comment, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"fullDocument.post_id": postID}}},
	}
	stream, err := r.collection.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("watch comments: %w", err)
	}

	out := make(chan []models.Comment, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		snapshot, err := r.ListByPost(ctx, postID)
		if err != nil {
			log.Printf("comment subscription: initial snapshot: %v", err)
			return
		}
		out <- snapshot

		for stream.Next(ctx) {
			snapshot, err := r.ListByPost(ctx, postID)
			if err != nil {
				log.Printf("comment subscription: snapshot refresh: %v", err)
				continue
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
