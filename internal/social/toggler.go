package social

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/session"
)

// ErrToggleInFlight is returned while a toggle on the same target has not
// resolved. Toggles on different targets proceed concurrently.
var ErrToggleInFlight = errors.New("follow toggle already in flight for this target")

// Toggler performs the paired, non-transactional follow/unfollow writes: two
// counter increments and two edge documents, issued as independent calls. A
// crash or partition between calls can leave the edge asymmetric; failures
// are logged per call and surfaced joined, and the local optimistic set is
// not reconciled against per-call success.
type Toggler struct {
	session *session.Session
	users   repositories.UserRepository
	follows repositories.FollowRepository

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewToggler creates a relationship toggler for one session.
func NewToggler(sess *session.Session, users repositories.UserRepository, follows repositories.FollowRepository) *Toggler {
	return &Toggler{
		session:  sess,
		users:    users,
		follows:  follows,
		inFlight: map[string]bool{},
	}
}

// Toggle follows targetID if the local set says the viewer does not follow
// them yet, else unfollows. The local set flips immediately, before any
// network call. Viewer == target is a no-op.
func (t *Toggler) Toggle(ctx context.Context, targetID string) (following bool, err error) {
	viewerID := t.session.UserID()
	if viewerID == targetID {
		return t.session.IsFollowing(targetID), nil
	}

	t.mu.Lock()
	if t.inFlight[targetID] {
		t.mu.Unlock()
		return t.session.IsFollowing(targetID), ErrToggleInFlight
	}
	t.inFlight[targetID] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.inFlight, targetID)
		t.mu.Unlock()
	}()

	if t.session.IsFollowing(targetID) {
		t.session.SetFollowing(targetID, false)
		return false, t.unfollow(ctx, viewerID, targetID)
	}
	t.session.SetFollowing(targetID, true)
	return true, t.follow(ctx, viewerID, targetID)
}

func (t *Toggler) follow(ctx context.Context, viewerID, targetID string) error {
	var errs []error

	if err := t.users.IncrementFollowingCount(ctx, viewerID, 1); err != nil {
		errs = append(errs, fmt.Errorf("viewer following counter: %w", err))
	}
	if err := t.users.IncrementFollowersCount(ctx, targetID, 1); err != nil {
		errs = append(errs, fmt.Errorf("target follower counter: %w", err))
	}
	if err := t.follows.CreateFollowingEdge(ctx, viewerID, targetID); err != nil {
		errs = append(errs, fmt.Errorf("following edge: %w", err))
	}
	if err := t.follows.CreateFollowersEdge(ctx, viewerID, targetID); err != nil {
		errs = append(errs, fmt.Errorf("followers edge: %w", err))
	}

	return t.report("follow", viewerID, targetID, errs)
}

func (t *Toggler) unfollow(ctx context.Context, viewerID, targetID string) error {
	var errs []error

	if err := t.users.IncrementFollowingCount(ctx, viewerID, -1); err != nil {
		errs = append(errs, fmt.Errorf("viewer following counter: %w", err))
	}
	if err := t.users.IncrementFollowersCount(ctx, targetID, -1); err != nil {
		errs = append(errs, fmt.Errorf("target follower counter: %w", err))
	}
	if err := t.follows.DeleteFollowingEdge(ctx, viewerID, targetID); err != nil {
		errs = append(errs, fmt.Errorf("following edge: %w", err))
	}
	if err := t.follows.DeleteFollowersEdge(ctx, viewerID, targetID); err != nil {
		errs = append(errs, fmt.Errorf("followers edge: %w", err))
	}

	return t.report("unfollow", viewerID, targetID, errs)
}

func (t *Toggler) report(op, viewerID, targetID string, errs []error) error {
	for _, e := range errs {
		log.Printf("social: %s %s -> %s: %v", op, viewerID, targetID, e)
	}
	return errors.Join(errs...)
}

// CheckSymmetry reports whether the two edge documents for a pair agree. A
// reconciliation pass can use this to find edges left asymmetric by partial
// failure.
func (t *Toggler) CheckSymmetry(ctx context.Context, viewerID, targetID string) (symmetric bool, err error) {
	followingSide, err := t.follows.HasFollowingEdge(ctx, viewerID, targetID)
	if err != nil {
		return false, err
	}
	followersSide, err := t.follows.HasFollowersEdge(ctx, viewerID, targetID)
	if err != nil {
		return false, err
	}
	return followingSide == followersSide, nil
}
