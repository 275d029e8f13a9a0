package feed

import (
	"context"
	"sync"

	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/session"
)

// EnrichedPost is a post joined with its author's cached display data and the
// viewer-specific like state.
type EnrichedPost struct {
	models.Post
	Author     models.AuthorDisplay `json:"author"`
	IsLiked    bool                 `json:"is_liked"`
	LikesCount int                  `json:"likes_count"`
}

// View maintains the live, ordered post feed for one session, enriching every
// snapshot through the session's author cache and layering the optimistic
// like state on top of the remote truth.
type View struct {
	session *session.Session
	posts   repositories.PostRepository

	mu     sync.Mutex
	latest []models.Post
	likes  map[string]*likeState
}

// NewView creates a feed view bound to a session.
func NewView(sess *session.Session, posts repositories.PostRepository) *View {
	return &View{
		session: sess,
		posts:   posts,
		likes:   map[string]*likeState{},
	}
}

// Subscribe streams enriched feed snapshots until ctx is cancelled. Each
// incoming snapshot refreshes the view's local copy and confirms or clears
// optimistic like entries the server has caught up with.
func (v *View) Subscribe(ctx context.Context, limit int64) (<-chan []EnrichedPost, error) {
	raw, err := v.posts.Subscribe(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make(chan []EnrichedPost, 1)
	go func() {
		defer close(out)
		for snapshot := range raw {
			enriched := v.apply(ctx, snapshot)
			select {
			case out <- enriched:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Refresh loads one snapshot without a subscription, for the non-live view.
func (v *View) Refresh(ctx context.Context, limit int64) ([]EnrichedPost, error) {
	snapshot, err := v.posts.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return v.apply(ctx, snapshot), nil
}

func (v *View) apply(ctx context.Context, snapshot []models.Post) []EnrichedPost {
	v.mu.Lock()
	v.latest = snapshot
	v.mu.Unlock()

	enriched := make([]EnrichedPost, len(snapshot))
	for i, p := range snapshot {
		enriched[i] = EnrichedPost{
			Post:   p,
			Author: v.session.Author(ctx, p.UserID),
		}
		enriched[i].IsLiked, enriched[i].LikesCount = v.likeDisplay(&p)
	}
	return enriched
}

// likeDisplay merges the remote like list with any live optimistic or
// just-confirmed flip. Once the server snapshot reflects a confirmed flip the
// local entry is dropped and the remote truth stands alone.
func (v *View) likeDisplay(p *models.Post) (bool, int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	liked := p.LikedBy(v.session.UserID())
	count := len(p.LikeIDs)

	st, ok := v.likes[p.ID]
	if !ok || st.phase == likeReverted {
		return liked, count
	}
	if st.phase == likeConfirmed && st.target == liked {
		delete(v.likes, p.ID)
		return liked, count
	}
	if st.target != liked {
		count += delta(st.target)
	}
	return st.target, count
}

func delta(target bool) int {
	if target {
		return 1
	}
	return -1
}
