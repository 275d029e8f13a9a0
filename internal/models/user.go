package models

import (
	"github.com/golang-jwt/jwt/v4"
)

// User represents a user profile document in the remote store.
// Follower/following/post counters are denormalized and maintained via atomic
// increments; nothing enforces that they match the actual edge documents.
type User struct {
	ID             string `json:"id" bson:"_id"`
	Name           string `json:"name" bson:"name"`
	Email          string `json:"email" bson:"email"`
	Image          string `json:"image,omitempty" bson:"image,omitempty"` // URL, data URI, or bare base64
	Password       string `json:"-" bson:"password,omitempty"`            // bcrypt hash, local accounts only
	FirebaseUID    string `json:"firebase_uid,omitempty" bson:"firebase_uid,omitempty"`
	Role           string `json:"role" bson:"role"` // "citizen" or "moderator"
	FollowersCount int    `json:"followers_count" bson:"followers_count"`
	FollowingCount int    `json:"following_count" bson:"following_count"`
	PostsCount     int    `json:"posts_count" bson:"posts_count"`
}

// AuthorDisplay is the denormalized author payload cached per session and
// snapshotted onto comments at write time.
type AuthorDisplay struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Image string `json:"image" bson:"image"`
}

// ToDisplay projects a user onto its display fields, defaulting a missing
// profile image to the shared placeholder.
func (u *User) ToDisplay() AuthorDisplay {
	return AuthorDisplay{
		ID:    u.ID,
		Name:  u.Name,
		Image: ResolveImageRef(u.Image),
	}
}

// CreateLocalUserRequest defines the request body for email/password signup
type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateProfileRequest defines the request body for editing the own profile
type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Image string `json:"image,omitempty"`
}

// SignInRequest defines the request body for email/password sign-in
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for federated sign-in
type FirebaseLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
	Name    string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Image   string `json:"image,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
