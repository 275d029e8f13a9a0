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

// PostRepository defines the interface for post data operations
type PostRepository interface {
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListRecent(ctx context.Context, limit int64) ([]models.Post, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Post, error)
	// CreateWithAuthorCount inserts the post document and increments the
	// author's post counter in one atomic batched write.
	CreateWithAuthorCount(ctx context.Context, post *models.Post) error
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
	IncrementCommentsCount(ctx context.Context, postID string) error
	// Subscribe streams full ordered feed snapshots until ctx is cancelled.
	Subscribe(ctx context.Context, limit int64) (<-chan []models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	client *mongo.Client
	posts  *mongo.Collection
	users  *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(client *mongo.Client, db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		client: client,
		posts:  db.Collection("posts"),
		users:  db.Collection("users"),
	}
}

// GetPostByID retrieves a post by ID
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("post not found")
		}
		return nil, err
	}
	return &post, nil
}

// ListRecent retrieves the newest posts, creation time descending
func (r *MongoPostRepository) ListRecent(ctx context.Context, limit int64) ([]models.Post, error) {
	var posts []models.Post
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.posts.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByUser retrieves a user's posts, creation time descending
func (r *MongoPostRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Post, error) {
	var posts []models.Post
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.posts.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreateWithAuthorCount inserts the post and bumps the author's post counter
// inside one session transaction, so neither write lands without the other.
func (r *MongoPostRepository) CreateWithAuthorCount(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Status == "" {
		post.Status = models.StatusOpen
	}
	if post.LikeIDs == nil {
		post.LikeIDs = []string{}
	}
	post.CreatedAt = time.Now()

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.posts.InsertOne(sc, post); err != nil {
			return nil, err
		}
		res, err := r.users.UpdateOne(sc, bson.M{"_id": post.UserID}, bson.M{"$inc": bson.M{"posts_count": 1}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("author %s not found", post.UserID)
		}
		return nil, nil
	})
	return err
}

// AddLike adds userID to the post's like list via atomic set-union
func (r *MongoPostRepository) AddLike(ctx context.Context, postID, userID string) error {
	_, err := r.posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$addToSet": bson.M{"like_ids": userID}})
	return err
}

// RemoveLike removes userID from the post's like list via atomic set-removal
func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	_, err := r.posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$pull": bson.M{"like_ids": userID}})
	return err
}

// IncrementCommentsCount increments the comments counter of a post
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	_, err := r.posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$inc": bson.M{"comments_count": 1}})
	return err
}

// Subscribe opens a change stream on the posts collection and emits a fresh
// ordered snapshot after every change, plus one initial snapshot. The stream
// and channel are torn down when ctx is cancelled.
func (r *MongoPostRepository) Subscribe(ctx context.Context, limit int64) (<-chan []models.Post, error) {
	stream, err := r.posts.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("watch posts: %w", err)
	}

	out := make(chan []models.Post, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		snapshot, err := r.ListRecent(ctx, limit)
		if err != nil {
			log.Printf("feed subscription: initial snapshot: %v", err)
			return
		}
		out <- snapshot

		for stream.Next(ctx) {
			snapshot, err := r.ListRecent(ctx, limit)
			if err != nil {
				log.Printf("feed subscription: snapshot refresh: %v", err)
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
