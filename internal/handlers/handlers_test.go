package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civiclens/app/internal/composer"
	"github.com/civiclens/app/internal/media"
	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/session"
	"github.com/civiclens/app/internal/storage"
	"github.com/civiclens/app/validators"
	"github.com/labstack/echo/v4"
)

type mockUserRepository struct {
	getByEmailFn func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *models.User) error { return nil }

func (m *mockUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
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

type mockFollowRepository struct{}

func (mockFollowRepository) CreateFollowingEdge(ctx context.Context, followerID, followeeID string) error {
	return nil
}

func (mockFollowRepository) CreateFollowersEdge(ctx context.Context, followerID, followeeID string) error {
	return nil
}

func (mockFollowRepository) DeleteFollowingEdge(ctx context.Context, followerID, followeeID string) error {
	return nil
}

func (mockFollowRepository) DeleteFollowersEdge(ctx context.Context, followerID, followeeID string) error {
	return nil
}

func (mockFollowRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	return nil, nil
}

func (mockFollowRepository) HasFollowingEdge(ctx context.Context, followerID, followeeID string) (bool, error) {
	return false, nil
}

func (mockFollowRepository) HasFollowersEdge(ctx context.Context, followerID, followeeID string) (bool, error) {
	return false, nil
}

type mockPostRepository struct {
	listRecentFn func(ctx context.Context, limit int64) ([]models.Post, error)
	addLikeFn    func(ctx context.Context, postID, userID string) error
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
	return nil
}

func (m *mockPostRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	return nil
}

func (m *mockPostRepository) Subscribe(ctx context.Context, limit int64) (<-chan []models.Post, error) {
	return nil, errors.New("not subscribable")
}

type stubGamificationRepository struct{}

func (stubGamificationRepository) GetRecord(ctx context.Context, userID string) (*models.GamificationRecord, error) {
	return models.ZeroGamificationRecord(userID), nil
}

func (stubGamificationRepository) TopByPoints(ctx context.Context, limit int64) ([]models.GamificationRecord, error) {
	return nil, nil
}

func (stubGamificationRepository) RecordPost(ctx context.Context, userID string) error { return nil }

type stubStream struct{}

func (stubStream) Frame(ctx context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 64, 80)), nil
}

func (stubStream) Stop() {}

type stubSource struct{}

func (stubSource) Acquire(ctx context.Context) (media.Stream, error) { return stubStream{}, nil }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

func signedInManager(t *testing.T) (*session.Manager, string) {
	t.Helper()
	m := session.NewManager(&mockUserRepository{}, mockFollowRepository{}, nil, "test-secret")
	sess, _, err := m.SignUpLocal(context.Background(), models.CreateLocalUserRequest{
		Name: "Ada", Email: "ada@example.com", Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return m, sess.UserID()
}

func TestHealthCheck(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	if err := HealthCheck(e.NewContext(req, rec)); err != nil {
		t.Fatalf("health check: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSignupReturnsTokenAndUser(t *testing.T) {
	e := newTestEcho()
	m := session.NewManager(&mockUserRepository{}, mockFollowRepository{}, nil, "test-secret")
	h := NewAuthHandler(m)

	payload := `{"name":"Ada","email":"ada@example.com","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Signup(e.NewContext(req, rec)); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Token == "" || body.User.ID == "" {
		t.Fatalf("expected token and user, got %+v", body)
	}
	if m.Get(body.User.ID) == nil {
		t.Fatal("expected live session after signup")
	}
}

func TestSignupRejectsInvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(session.NewManager(&mockUserRepository{}, mockFollowRepository{}, nil, "s"))

	payload := `{"name":"A","email":"not-an-email","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.Signup(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestGetFeedRequiresSession(t *testing.T) {
	e := newTestEcho()
	m := session.NewManager(&mockUserRepository{}, mockFollowRepository{}, nil, "test-secret")
	h := NewFeedHandler(m, &mockPostRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	rec := httptest.NewRecorder()

	err := h.GetFeed(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSignOutLeavesOtherCompositionsLive(t *testing.T) {
	e := newTestEcho()
	m := session.NewManager(&mockUserRepository{}, mockFollowRepository{}, nil, "test-secret")

	ada, _, err := m.SignUpLocal(context.Background(), models.CreateLocalUserRequest{
		Name: "Ada", Email: "ada@example.com", Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("open first session: %v", err)
	}
	grace, _, err := m.SignUpLocal(context.Background(), models.CreateLocalUserRequest{
		Name: "Grace", Email: "grace@example.com", Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("open second session: %v", err)
	}

	submitter := composer.NewSubmitter(&mockPostRepository{}, stubGamificationRepository{}, storage.InlineStore{})
	h := NewComposeHandler(m, submitter, stubSource{}, nil)

	do := func(path, body string, fn echo.HandlerFunc) *echo.HTTPError {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set("userID", grace.UserID())
		err := fn(c)
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		return nil
	}

	if httpErr := do("/api/v1/compose/activate", "", h.Activate); httpErr != nil {
		t.Fatalf("activate: %v", httpErr)
	}
	if httpErr := do("/api/v1/compose/capture", "", h.Capture); httpErr != nil {
		t.Fatalf("capture: %v", httpErr)
	}

	// Another user signing out must not touch this composition.
	m.SignOut(ada.UserID())

	if httpErr := do("/api/v1/compose/crop", `{"center_x":0.5,"center_y":0.5,"zoom":1}`, h.Crop); httpErr != nil {
		t.Fatalf("expected crop to survive the other sign-out, got %v", httpErr)
	}

	// The owner's own sign-out still tears the flow down.
	m.SignOut(grace.UserID())
	h.mu.Lock()
	_, kept := h.flows[grace.UserID()]
	h.mu.Unlock()
	if kept {
		t.Fatal("expected the signed-out user's flow discarded")
	}
}

func TestToggleLikeMapsFailures(t *testing.T) {
	e := newTestEcho()
	posts := &mockPostRepository{
		listRecentFn: func(ctx context.Context, limit int64) ([]models.Post, error) {
			return []models.Post{{ID: "p1", UserID: "author"}}, nil
		},
		addLikeFn: func(ctx context.Context, postID, userID string) error {
			return errors.New("network unreachable")
		},
	}
	m, userID := signedInManager(t)
	h := NewFeedHandler(m, posts)

	// Seed the view's snapshot through the read path.
	seedReq := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	seedCtx := e.NewContext(seedReq, httptest.NewRecorder())
	seedCtx.Set("userID", userID)
	if err := h.GetFeed(seedCtx); err != nil {
		t.Fatalf("seed feed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/p1/likes/toggle", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("userID", userID)
	c.SetParamNames("post_id")
	c.SetParamValues("p1")

	if err := h.ToggleLike(c); err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	// The write failed: the handler reports the reverted state.
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Liked bool `json:"liked"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.Data.Liked {
		t.Fatalf("expected reverted unliked state, got %+v", body)
	}
}
