package comments

import (
	"context"
	"errors"
	"testing"

	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/session"
)

type mockCommentRepository struct {
	added        []*models.Comment
	addCommentFn func(ctx context.Context, comment *models.Comment) error
	listByPostFn func(ctx context.Context, postID string) ([]models.Comment, error)
}

func (m *mockCommentRepository) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	if m.listByPostFn != nil {
		return m.listByPostFn(ctx, postID)
	}
	return nil, nil
}

func (m *mockCommentRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	if m.addCommentFn != nil {
		if err := m.addCommentFn(ctx, comment); err != nil {
			return err
		}
	}
	m.added = append(m.added, comment)
	return nil
}

func (m *mockCommentRepository) Subscribe(ctx context.Context, postID string) (<-chan []models.Comment, error) {
	return nil, errors.New("not subscribable")
}

type mockPostRepository struct {
	counterIncrements int
	incrementFn       func(ctx context.Context, postID string) error
	getPostFn         func(ctx context.Context, id string) (*models.Post, error)
}

func (m *mockPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, id)
	}
	return nil, errors.New("post not found")
}

func (m *mockPostRepository) ListRecent(ctx context.Context, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (m *mockPostRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (m *mockPostRepository) CreateWithAuthorCount(ctx context.Context, post *models.Post) error {
	return nil
}

func (m *mockPostRepository) AddLike(ctx context.Context, postID, userID string) error    { return nil }
func (m *mockPostRepository) RemoveLike(ctx context.Context, postID, userID string) error { return nil }

func (m *mockPostRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	m.counterIncrements++
	if m.incrementFn != nil {
		return m.incrementFn(ctx, postID)
	}
	return nil
}

func (m *mockPostRepository) Subscribe(ctx context.Context, limit int64) (<-chan []models.Post, error) {
	return nil, errors.New("not subscribable")
}

type mockUserRepository struct{}

func (mockUserRepository) CreateUser(ctx context.Context, user *models.User) error { return nil }

func (mockUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return nil, errors.New("user not found")
}

func (mockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, errors.New("user not found")
}

func (mockUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return nil, errors.New("user not found")
}

func (mockUserRepository) GetUsers(ctx context.Context) ([]models.User, error) { return nil, nil }

func (mockUserRepository) MergeUser(ctx context.Context, id string, fields map[string]interface{}) error {
	return nil
}

func (mockUserRepository) IncrementFollowersCount(ctx context.Context, id string, delta int) error {
	return nil
}

func (mockUserRepository) IncrementFollowingCount(ctx context.Context, id string, delta int) error {
	return nil
}

func newTestThread(commentsRepo *mockCommentRepository, posts *mockPostRepository) *Thread {
	viewer := &models.User{ID: "viewer", Name: "Viewer", Image: "https://cdn.example.com/v.jpg"}
	sess := session.New(viewer, mockUserRepository{}, nil)
	return NewThread(sess, commentsRepo, posts)
}

func TestSubmitSnapshotsAuthorAndIncrementsCounter(t *testing.T) {
	commentsRepo := &mockCommentRepository{}
	posts := &mockPostRepository{}
	thread := newTestThread(commentsRepo, posts)

	comment, err := thread.Submit(context.Background(), "p1", "please fix this")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if comment.AuthorName != "Viewer" || comment.AuthorImage != "https://cdn.example.com/v.jpg" {
		t.Fatalf("expected author snapshot from the session, got %+v", comment)
	}
	if comment.PostID != "p1" || comment.UserID != "viewer" {
		t.Fatalf("unexpected comment identity: %+v", comment)
	}
	if posts.counterIncrements != 1 {
		t.Fatalf("expected one counter increment, got %d", posts.counterIncrements)
	}
}

func TestSubmitAppendFailureSkipsCounter(t *testing.T) {
	commentsRepo := &mockCommentRepository{
		addCommentFn: func(ctx context.Context, comment *models.Comment) error {
			return errors.New("network unreachable")
		},
	}
	posts := &mockPostRepository{}
	thread := newTestThread(commentsRepo, posts)

	if _, err := thread.Submit(context.Background(), "p1", "text"); err == nil {
		t.Fatal("expected append failure to surface")
	}
	// A failed append must not inflate the denormalized counter.
	if posts.counterIncrements != 0 {
		t.Fatalf("expected no counter increment, got %d", posts.counterIncrements)
	}
}

func TestSubmitCounterFailureKeepsComment(t *testing.T) {
	commentsRepo := &mockCommentRepository{}
	posts := &mockPostRepository{
		incrementFn: func(ctx context.Context, postID string) error {
			return errors.New("counter write failed")
		},
	}
	thread := newTestThread(commentsRepo, posts)

	comment, err := thread.Submit(context.Background(), "p1", "text")
	if err != nil {
		t.Fatalf("expected comment to stand despite counter failure, got %v", err)
	}
	if comment == nil || len(commentsRepo.added) != 1 {
		t.Fatal("expected appended comment")
	}
}

func TestSubmitRejectsEmptyText(t *testing.T) {
	thread := newTestThread(&mockCommentRepository{}, &mockPostRepository{})
	if _, err := thread.Submit(context.Background(), "p1", ""); err == nil {
		t.Fatal("expected empty text to be rejected")
	}
}

func TestVerifyCounterSurfacesDrift(t *testing.T) {
	commentsRepo := &mockCommentRepository{
		listByPostFn: func(ctx context.Context, postID string) ([]models.Comment, error) {
			return []models.Comment{{ID: "c1"}, {ID: "c2"}}, nil
		},
	}
	posts := &mockPostRepository{
		getPostFn: func(ctx context.Context, id string) (*models.Post, error) {
			return &models.Post{ID: id, CommentsCount: 3}, nil
		},
	}
	thread := newTestThread(commentsRepo, posts)

	counter, actual, err := thread.VerifyCounter(context.Background(), "p1")
	if err != nil {
		t.Fatalf("verify counter: %v", err)
	}
	if counter != 3 || actual != 2 {
		t.Fatalf("expected drift 3 vs 2, got %d vs %d", counter, actual)
	}
}
