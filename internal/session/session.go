package session

import (
	"context"
	"sync"

	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/repositories"
)

// Session is the explicit per-sign-in context object handed to each view at
// construction. It owns the author-display cache and the viewer's local
// following set; both are created at sign-in and discarded at sign-out.
type Session struct {
	User *models.User

	users repositories.UserRepository

	mu        sync.Mutex
	authors   map[string]models.AuthorDisplay
	following map[string]bool
}

// New creates a session for a signed-in user with its following set seeded.
func New(user *models.User, users repositories.UserRepository, followingIDs []string) *Session {
	s := &Session{
		User:      user,
		users:     users,
		authors:   make(map[string]models.AuthorDisplay),
		following: make(map[string]bool),
	}
	for _, id := range followingIDs {
		s.following[id] = true
	}
	// The viewer's own display data never needs a fetch.
	s.authors[user.ID] = user.ToDisplay()
	return s
}

// UserID returns the signed-in user's id.
func (s *Session) UserID() string {
	return s.User.ID
}

// Author returns display data for an author id, fetching the profile at most
// once per session. The cache is never invalidated while the session lives;
// profile edits made elsewhere will not retroactively update rendered posts.
func (s *Session) Author(ctx context.Context, authorID string) models.AuthorDisplay {
	s.mu.Lock()
	if cached, ok := s.authors[authorID]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	display := models.AuthorDisplay{ID: authorID, Name: "Unknown", Image: models.PlaceholderImage}
	if user, err := s.users.GetUserByID(ctx, authorID); err == nil {
		display = user.ToDisplay()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent fetch may have landed first; keep the existing entry so
	// one author id maps to one stable display for the whole session.
	if cached, ok := s.authors[authorID]; ok {
		return cached
	}
	s.authors[authorID] = display
	return display
}

// IsFollowing reports membership in the local optimistic following set.
func (s *Session) IsFollowing(targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.following[targetID]
}

// SetFollowing updates the local following set. Called optimistically, before
// the corresponding network writes are issued.
func (s *Session) SetFollowing(targetID string, following bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if following {
		s.following[targetID] = true
	} else {
		delete(s.following, targetID)
	}
}

// FollowingIDs returns a copy of the local following set.
func (s *Session) FollowingIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.following))
	for id := range s.following {
		ids = append(ids, id)
	}
	return ids
}
