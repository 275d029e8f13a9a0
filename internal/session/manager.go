package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenVerifier is the slice of the Firebase auth client the manager needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Manager owns the live sessions and notifies listeners on session change.
type Manager struct {
	users     repositories.UserRepository
	follows   repositories.FollowRepository
	verifier  TokenVerifier
	jwtSecret string

	mu        sync.Mutex
	sessions  map[string]*Session
	listeners []func(userID string, sess *Session)
}

// NewManager creates a session manager.
func NewManager(users repositories.UserRepository, follows repositories.FollowRepository, verifier TokenVerifier, jwtSecret string) *Manager {
	return &Manager{
		users:     users,
		follows:   follows,
		verifier:  verifier,
		jwtSecret: jwtSecret,
		sessions:  make(map[string]*Session),
	}
}

// OnChange registers a callback invoked with the user id and the new session
// on sign-in, and with the user id and nil on sign-out. Only the named user's
// state may be torn down; other sessions stay live.
func (m *Manager) OnChange(fn func(userID string, sess *Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Get returns the live session for a user id, or nil.
func (m *Manager) Get(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// SignInLocal authenticates an email/password account and opens a session.
func (m *Manager) SignInLocal(ctx context.Context, email, password string) (*Session, string, error) {
	user, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}
	return m.open(ctx, user)
}

// SignUpLocal creates an email/password account and opens a session.
func (m *Manager) SignUpLocal(ctx context.Context, req models.CreateLocalUserRequest) (*Session, string, error) {
	if _, err := m.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, "", fmt.Errorf("user with this email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := m.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}
	return m.open(ctx, user)
}

// SignInFirebase verifies a Firebase ID token and opens a session, lazily
// creating the user document on first sign-in.
func (m *Manager) SignInFirebase(ctx context.Context, req models.FirebaseLoginRequest) (*Session, string, error) {
	token, err := m.verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return nil, "", fmt.Errorf("invalid or expired ID token: %w", err)
	}

	user, err := m.users.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		email, _ := token.Claims["email"].(string)
		user = &models.User{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Email:       email,
			Image:       req.Image,
			FirebaseUID: token.UID,
		}
		if user.Name == "" {
			user.Name = "Citizen"
		}
		if err := m.users.CreateUser(ctx, user); err != nil {
			return nil, "", err
		}
	}
	return m.open(ctx, user)
}

// SignOut discards a user's session and notifies listeners.
func (m *Manager) SignOut(userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	listeners := append([]func(string, *Session){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(userID, nil)
	}
}

func (m *Manager) open(ctx context.Context, user *models.User) (*Session, string, error) {
	followingIDs, err := m.follows.FollowingIDs(ctx, user.ID)
	if err != nil {
		// A fresh session with an empty following set is still usable.
		log.Printf("session: seeding following set for %s: %v", user.ID, err)
	}

	sess := New(user, m.users, followingIDs)

	token, err := m.generateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	m.mu.Lock()
	m.sessions[user.ID] = sess
	listeners := append([]func(string, *Session){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(user.ID, sess)
	}
	return sess, token, nil
}

func (m *Manager) generateJWT(user *models.User) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(72 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.jwtSecret))
}
