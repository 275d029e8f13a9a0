package feed

import (
	"context"
	"fmt"
	"log"
)

// likePhase tracks one post's optimistic like flip:
// Unconfirmed-Optimistic until the write resolves, then Confirmed on success
// or Reverted on failure. Modeling it explicitly keeps the revert logic in
// one testable place instead of ad hoc boolean flips.
type likePhase int

const (
	likeOptimistic likePhase = iota
	likeConfirmed
	likeReverted
)

type likeState struct {
	phase  likePhase
	target bool // the optimistic direction: true = liked
}

// ErrToggleInFlight is returned when a like toggle on the same post has not
// resolved yet. Rapid double-toggles would otherwise race their writes.
var ErrToggleInFlight = fmt.Errorf("like toggle already in flight")

// LikeStatus returns the displayed like state and count for a post id from
// the view's latest snapshot.
func (v *View) LikeStatus(postID string) (liked bool, count int, ok bool) {
	v.mu.Lock()
	snapshot := v.latest
	v.mu.Unlock()

	for i := range snapshot {
		if snapshot[i].ID == postID {
			liked, count = v.likeDisplay(&snapshot[i])
			return liked, count, true
		}
	}
	return false, 0, false
}

// ToggleLike flips the viewer's like on a post. The local state and count
// flip synchronously, before the network call; on write failure they revert
// to the pre-toggle values and the error is returned for the caller to toast.
func (v *View) ToggleLike(ctx context.Context, postID string) (bool, error) {
	viewerID := v.session.UserID()

	v.mu.Lock()
	if st, ok := v.likes[postID]; ok && st.phase == likeOptimistic {
		v.mu.Unlock()
		return false, ErrToggleInFlight
	}

	var current bool
	found := false
	for i := range v.latest {
		if v.latest[i].ID == postID {
			current = v.latest[i].LikedBy(viewerID)
			found = true
			break
		}
	}
	if !found {
		v.mu.Unlock()
		return false, fmt.Errorf("post not in feed")
	}

	target := !current
	v.likes[postID] = &likeState{phase: likeOptimistic, target: target}
	v.mu.Unlock()

	var err error
	if target {
		err = v.posts.AddLike(ctx, postID, viewerID)
	} else {
		err = v.posts.RemoveLike(ctx, postID, viewerID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	st := v.likes[postID]
	if err != nil {
		st.phase = likeReverted
		st.target = current
		log.Printf("feed: like toggle on %s reverted: %v", postID, err)
		return current, err
	}
	st.phase = likeConfirmed
	return target, nil
}
