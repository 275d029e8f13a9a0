package models

import "time"

// GamificationRecord is the externally-maintained points record for one user.
// The UI reads it and renders level/progress; writes happen only through the
// "record post" side-effect.
type GamificationRecord struct {
	ID            string          `json:"id" bson:"_id"` // same as the user id
	UserID        string          `json:"user_id" bson:"user_id"`
	Points        int             `json:"points" bson:"points"`
	Level         int             `json:"level" bson:"level"`
	Badge         string          `json:"badge" bson:"badge"`
	CurrentStreak int             `json:"current_streak" bson:"current_streak"`
	LongestStreak int             `json:"longest_streak" bson:"longest_streak"`
	StreakDays    map[string]bool `json:"streak_days,omitempty" bson:"streak_days,omitempty"` // YYYY-MM-DD markers
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

// ZeroGamificationRecord returns the defaulted record used when a user has no
// stored record yet.
func ZeroGamificationRecord(userID string) *GamificationRecord {
	return &GamificationRecord{
		ID:     userID,
		UserID: userID,
	}
}

// LeaderboardRow is one rendered leaderboard entry: a points record joined
// client-side with its user profile. Missing profiles render as placeholders.
type LeaderboardRow struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
	Badge  string `json:"badge"`
}
