package comments

import (
	"context"
	"fmt"
	"log"

	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/repositories"
	"github.com/civiclens/app/internal/session"
)

// Thread is one post's live comment view. Submission is optimistic only in
// that the input clears immediately; the comment itself appears when the
// subscription echoes it back.
type Thread struct {
	session  *session.Session
	comments repositories.CommentRepository
	posts    repositories.PostRepository
}

// NewThread creates a comment thread service for one session.
func NewThread(sess *session.Session, comments repositories.CommentRepository, posts repositories.PostRepository) *Thread {
	return &Thread{session: sess, comments: comments, posts: posts}
}

// Subscribe streams the post's comments oldest-first until ctx is cancelled.
func (t *Thread) Subscribe(ctx context.Context, postID string) (<-chan []models.Comment, error) {
	return t.comments.Subscribe(ctx, postID)
}

// List loads the thread once, oldest first.
func (t *Thread) List(ctx context.Context, postID string) ([]models.Comment, error) {
	return t.comments.ListByPost(ctx, postID)
}

// Submit appends a comment with the author snapshot taken from the session's
// cached profile, then increments the post's comment counter. The counter
// write is gated on a successful append so a failed append cannot inflate it;
// a failed counter write after a successful append is logged and left for
// VerifyCounter to surface.
func (t *Thread) Submit(ctx context.Context, postID, text string) (*models.Comment, error) {
	if text == "" {
		return nil, fmt.Errorf("comment text is required")
	}

	author := t.session.Author(ctx, t.session.UserID())
	comment := &models.Comment{
		PostID:      postID,
		UserID:      t.session.UserID(),
		Text:        text,
		AuthorName:  author.Name,
		AuthorImage: author.Image,
	}

	if err := t.comments.AddComment(ctx, comment); err != nil {
		log.Printf("comments: append on %s failed: %v", postID, err)
		return nil, err
	}

	if err := t.posts.IncrementCommentsCount(ctx, postID); err != nil {
		log.Printf("comments: counter increment on %s failed: %v", postID, err)
	}
	return comment, nil
}

// VerifyCounter compares the post's denormalized comment counter with the
// actual thread size, making historical drift observable.
func (t *Thread) VerifyCounter(ctx context.Context, postID string) (counter, actual int, err error) {
	post, err := t.posts.GetPostByID(ctx, postID)
	if err != nil {
		return 0, 0, err
	}
	thread, err := t.comments.ListByPost(ctx, postID)
	if err != nil {
		return 0, 0, err
	}
	return post.CommentsCount, len(thread), nil
}
