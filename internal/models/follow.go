package models

import "time"

// FollowEdge represents one side of a bidirectional follow relationship.
// The same edge is written twice: once into the follower's "following"
// collection and once into the followee's "followers" collection, with
// redundant counters on both User documents. The four writes are not
// transactional; partial failure leaves the edge asymmetric.
type FollowEdge struct {
	ID         string    `json:"id" bson:"_id"`
	FollowerID string    `json:"follower_id" bson:"follower_id"`
	FolloweeID string    `json:"followee_id" bson:"followee_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
