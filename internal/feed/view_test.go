package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/session"
)

type mockPostRepository struct {
	listRecentFn func(ctx context.Context, limit int64) ([]models.Post, error)
	addLikeFn    func(ctx context.Context, postID, userID string) error
	removeLikeFn func(ctx context.Context, postID, userID string) error
	subscribeFn  func(ctx context.Context, limit int64) (<-chan []models.Post, error)
}

func (m *mockPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	return nil, errors.New("post not found")
}

func (m *mockPostRepository) ListRecent(ctx context.Context, limit int64) ([]models.Post, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (m *mockPostRepository) CreateWithAuthorCount(ctx context.Context, post *models.Post) error {
	return nil
}

func (m *mockPostRepository) AddLike(ctx context.Context, postID, userID string) error {
	if m.addLikeFn != nil {
		return m.addLikeFn(ctx, postID, userID)
	}
	return nil
}

func (m *mockPostRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	if m.removeLikeFn != nil {
		return m.removeLikeFn(ctx, postID, userID)
	}
	return nil
}

func (m *mockPostRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	return nil
}

func (m *mockPostRepository) Subscribe(ctx context.Context, limit int64) (<-chan []models.Post, error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, limit)
	}
	return nil, errors.New("not subscribable")
}

type mockUserRepository struct {
	mu      sync.Mutex
	fetches int
	users   map[string]*models.User
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *models.User) error { return nil }

func (m *mockUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) GetUsers(ctx context.Context) ([]models.User, error) { return nil, nil }

func (m *mockUserRepository) MergeUser(ctx context.Context, id string, fields map[string]interface{}) error {
	return nil
}

func (m *mockUserRepository) IncrementFollowersCount(ctx context.Context, id string, delta int) error {
	return nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, id string, delta int) error {
	return nil
}

func newTestView(posts *mockPostRepository, users *mockUserRepository) *View {
	sess := session.New(&models.User{ID: "viewer", Name: "Viewer"}, users, nil)
	return NewView(sess, posts)
}

func feedOf(posts ...models.Post) func(ctx context.Context, limit int64) ([]models.Post, error) {
	return func(ctx context.Context, limit int64) ([]models.Post, error) {
		return posts, nil
	}
}

func TestToggleLikeConfirmedOnSuccess(t *testing.T) {
	repo := &mockPostRepository{
		listRecentFn: feedOf(models.Post{ID: "p1", UserID: "author", LikeIDs: []string{"other"}}),
	}
	v := newTestView(repo, &mockUserRepository{})

	if _, err := v.Refresh(context.Background(), 30); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	liked, err := v.ToggleLike(context.Background(), "p1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !liked {
		t.Fatal("expected toggle to report liked")
	}

	// The server snapshot has not caught up; the display must already flip.
	gotLiked, count, ok := v.LikeStatus("p1")
	if !ok || !gotLiked || count != 2 {
		t.Fatalf("expected liked with count 2, got liked=%v count=%d ok=%v", gotLiked, count, ok)
	}

	// Once the snapshot reflects the flip the local entry clears and the
	// remote truth stands alone.
	repo.listRecentFn = feedOf(models.Post{ID: "p1", UserID: "author", LikeIDs: []string{"other", "viewer"}})
	if _, err := v.Refresh(context.Background(), 30); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	gotLiked, count, _ = v.LikeStatus("p1")
	if !gotLiked || count != 2 {
		t.Fatalf("expected confirmed state from snapshot, got liked=%v count=%d", gotLiked, count)
	}
}

func TestToggleLikeRevertsOnWriteFailure(t *testing.T) {
	repo := &mockPostRepository{
		listRecentFn: feedOf(models.Post{ID: "p1", UserID: "author"}),
		addLikeFn: func(ctx context.Context, postID, userID string) error {
			return errors.New("network unreachable")
		},
	}
	v := newTestView(repo, &mockUserRepository{})
	if _, err := v.Refresh(context.Background(), 30); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	liked, err := v.ToggleLike(context.Background(), "p1")
	if err == nil {
		t.Fatal("expected toggle error")
	}
	if liked {
		t.Fatal("expected reverted state to be unliked")
	}

	gotLiked, count, _ := v.LikeStatus("p1")
	if gotLiked || count != 0 {
		t.Fatalf("expected pre-toggle state after revert, got liked=%v count=%d", gotLiked, count)
	}
}

func TestToggleLikeUnlikeDecrementsCount(t *testing.T) {
	repo := &mockPostRepository{
		listRecentFn: feedOf(models.Post{ID: "p1", UserID: "author", LikeIDs: []string{"viewer", "other"}}),
	}
	var removed bool
	repo.removeLikeFn = func(ctx context.Context, postID, userID string) error {
		removed = true
		return nil
	}
	v := newTestView(repo, &mockUserRepository{})
	if _, err := v.Refresh(context.Background(), 30); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	liked, err := v.ToggleLike(context.Background(), "p1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if liked || !removed {
		t.Fatalf("expected unlike through RemoveLike, got liked=%v removed=%v", liked, removed)
	}

	gotLiked, count, _ := v.LikeStatus("p1")
	if gotLiked || count != 1 {
		t.Fatalf("expected unliked with count 1, got liked=%v count=%d", gotLiked, count)
	}
}

func TestToggleLikeRejectsSecondToggleInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &mockPostRepository{
		listRecentFn: feedOf(models.Post{ID: "p1", UserID: "author"}),
		addLikeFn: func(ctx context.Context, postID, userID string) error {
			close(started)
			<-release
			return nil
		},
	}
	v := newTestView(repo, &mockUserRepository{})
	if _, err := v.Refresh(context.Background(), 30); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := v.ToggleLike(context.Background(), "p1")
		done <- err
	}()

	<-started
	if _, err := v.ToggleLike(context.Background(), "p1"); err != ErrToggleInFlight {
		t.Fatalf("expected ErrToggleInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first toggle: %v", err)
	}
}

func TestRefreshEnrichesAuthorsThroughSessionCache(t *testing.T) {
	users := &mockUserRepository{users: map[string]*models.User{
		"author": {ID: "author", Name: "Ada", Image: "https://cdn.example.com/ada.jpg"},
	}}
	repo := &mockPostRepository{
		listRecentFn: feedOf(
			models.Post{ID: "p1", UserID: "author"},
			models.Post{ID: "p2", UserID: "author"},
			models.Post{ID: "p3", UserID: "missing"},
		),
	}
	v := newTestView(repo, users)

	enriched, err := v.Refresh(context.Background(), 30)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(enriched) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(enriched))
	}
	if enriched[0].Author.Name != "Ada" || enriched[1].Author.Name != "Ada" {
		t.Fatalf("expected cached author display, got %q and %q", enriched[0].Author.Name, enriched[1].Author.Name)
	}
	if enriched[2].Author.Name != "Unknown" || enriched[2].Author.Image != models.PlaceholderImage {
		t.Fatalf("expected placeholder for missing author, got %+v", enriched[2].Author)
	}
	if users.fetches != 2 {
		t.Fatalf("expected one fetch per distinct author, got %d", users.fetches)
	}
}

func TestSubscribeAppliesSnapshots(t *testing.T) {
	raw := make(chan []models.Post, 1)
	repo := &mockPostRepository{
		subscribeFn: func(ctx context.Context, limit int64) (<-chan []models.Post, error) {
			return raw, nil
		},
	}
	v := newTestView(repo, &mockUserRepository{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, err := v.Subscribe(ctx, 30)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	raw <- []models.Post{{ID: "p1", UserID: "author", LikeIDs: []string{"viewer"}}}
	enriched := <-out
	if len(enriched) != 1 {
		t.Fatalf("expected 1 post, got %d", len(enriched))
	}
	if !enriched[0].IsLiked || enriched[0].LikesCount != 1 {
		t.Fatalf("expected viewer's like reflected, got %+v", enriched[0])
	}

	close(raw)
	if _, ok := <-out; ok {
		t.Fatal("expected output channel closed with the source")
	}
}
