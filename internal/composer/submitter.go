package composer

import (
	"context"
	"fmt"
	"log"

	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/storage"
)

// SubmitInput is the final bundle a flow hands to Submit: cropped image,
// caption text, and a best-effort geo-tag that may be nil.
type SubmitInput struct {
	UserID  string
	Image   []byte
	Caption string
	Tags    []string
	Geo     *models.GeoData
}

// Submitter turns a finished composition into a post document. The post
// create and the author counter increment commit together; the gamification
// call fires strictly afterwards and is best-effort.
type Submitter struct {
	posts        repositories.PostRepository
	gamification repositories.GamificationRepository
	store        storage.ImageStore
}

// NewSubmitter creates a Submitter.
func NewSubmitter(posts repositories.PostRepository, gamification repositories.GamificationRepository, store storage.ImageStore) *Submitter {
	return &Submitter{posts: posts, gamification: gamification, store: store}
}

// Submit performs the batched write and then the gamification side-effect.
// A gamification failure is logged and never rolls the post back.
func (s *Submitter) Submit(ctx context.Context, input SubmitInput) (*models.Post, error) {
	if len(input.Image) == 0 {
		return nil, fmt.Errorf("no image to submit")
	}
	if input.Caption == "" {
		return nil, fmt.Errorf("caption is required")
	}

	ref, err := s.store.Put(ctx, input.Image)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	post := &models.Post{
		UserID:  input.UserID,
		Caption: input.Caption,
		Image:   ref,
		Tags:    input.Tags,
		Geo:     input.Geo,
	}
	if err := s.posts.CreateWithAuthorCount(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	// The batch has committed; this call may independently fail.
	if err := s.gamification.RecordPost(ctx, input.UserID); err != nil {
		log.Printf("composer: record post for %s: %v", input.UserID, err)
	}

	return post, nil
}
