package models

import "time"

// PostStatus is the moderation status of a report post.
type PostStatus string

const (
	StatusOpen     PostStatus = "open"
	StatusVerified PostStatus = "verified"
	StatusResolved PostStatus = "resolved"
)

// Post represents a civic report document in the remote store.
// Likes are stored as a list of user ids on the post itself; the comments
// counter is maintained separately from the comment subcollection size.
type Post struct {
	ID            string     `json:"id" bson:"_id"`
	UserID        string     `json:"user_id" bson:"user_id"`
	Caption       string     `json:"caption" bson:"caption"`
	Image         string     `json:"image" bson:"image"` // URL, data URI, or bare base64
	Tags          []string   `json:"tags,omitempty" bson:"tags,omitempty"`
	Geo           *GeoData   `json:"geo_data" bson:"geo_data"`
	Status        PostStatus `json:"status" bson:"status"`
	LikeIDs       []string   `json:"like_ids" bson:"like_ids"`
	CommentsCount int        `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}

// LikedBy reports whether viewerID is in the post's like list.
func (p *Post) LikedBy(viewerID string) bool {
	for _, id := range p.LikeIDs {
		if id == viewerID {
			return true
		}
	}
	return false
}

// SubmitPostRequest defines the request body for submitting a composed post
type SubmitPostRequest struct {
	Caption string   `json:"caption" validate:"required,min=1,max=500"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=30"`
}
