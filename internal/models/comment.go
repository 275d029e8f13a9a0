package models

import "time"

// Comment represents a comment document in a post's comment subcollection.
// AuthorName and AuthorImage are snapshots captured at write time from the
// session's cached profile; they can go stale relative to the live User.
type Comment struct {
	ID          string    `json:"id" bson:"_id"`
	PostID      string    `json:"post_id" bson:"post_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Text        string    `json:"text" bson:"text"`
	AuthorName  string    `json:"author_name" bson:"author_name"`
	AuthorImage string    `json:"author_image" bson:"author_image"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// CreateCommentRequest defines the request body for appending a comment
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}
