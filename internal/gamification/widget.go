package gamification

import (
	"context"

	"github.com/civiclens/app/internal/models"
	"github.com/civiclens/app/internal/repositories"
)

// WidgetState is the rendered gamification panel for one user.
type WidgetState struct {
	Points          int    `json:"points"`
	Level           int    `json:"level"`
	Badge           string `json:"badge"`
	ProgressPercent int    `json:"progress_percent"`
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
}

// Widget derives the level/progress/badge display from a user's points
// record, defaulting to the zero-state when no record exists yet.
type Widget struct {
	records repositories.GamificationRepository
	users   repositories.UserRepository
}

// NewWidget creates the gamification widget service.
func NewWidget(records repositories.GamificationRepository, users repositories.UserRepository) *Widget {
	return &Widget{records: records, users: users}
}

// State computes the widget display for a user.
func (w *Widget) State(ctx context.Context, userID string) (*WidgetState, error) {
	record, err := w.records.GetRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WidgetState{
		Points:          record.Points,
		Level:           Level(record.Points),
		Badge:           Badge(record.Points),
		ProgressPercent: ProgressPercent(record.Points),
		CurrentStreak:   record.CurrentStreak,
		LongestStreak:   record.LongestStreak,
	}, nil
}

// Leaderboard returns the top-N rows, points descending. Each record is
// joined with its profile by scanning the full user list client-side; the
// store offers no join support, so this stays O(N*M) at advertised scale.
// Records without a matching profile render as placeholders rather than
// being dropped.
func (w *Widget) Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardRow, error) {
	records, err := w.records.TopByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}

	users, err := w.users.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.LeaderboardRow, len(records))
	for i, record := range records {
		row := models.LeaderboardRow{
			Rank:   i + 1,
			UserID: record.UserID,
			Name:   "Unknown",
			Image:  models.PlaceholderImage,
			Points: record.Points,
			Level:  Level(record.Points),
			Badge:  Badge(record.Points),
		}
		for j := range users {
			if users[j].ID == record.UserID {
				display := users[j].ToDisplay()
				row.Name = display.Name
				row.Image = display.Image
				break
			}
		}
		rows[i] = row
	}
	return rows, nil
}
