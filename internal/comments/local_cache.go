package comments

import (
	"time"

	"gorm.io/gorm"
)

// CachedComment is a device-local copy of a comment, keyed by post id. Only
// the legacy comment view reads it; the primary thread always renders from
// the live subscription.
type CachedComment struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	PostID      string    `json:"post_id" gorm:"index"`
	UserID      string    `json:"user_id"`
	Text        string    `json:"text"`
	AuthorName  string    `json:"author_name"`
	AuthorImage string    `json:"author_image"`
	CreatedAt   time.Time `json:"created_at"`
}

// LocalCache stores the legacy view's same-device comment copies.
type LocalCache struct {
	db *gorm.DB
}

// NewLocalCache creates the cache and migrates its table.
func NewLocalCache(db *gorm.DB) (*LocalCache, error) {
	if err := db.AutoMigrate(&CachedComment{}); err != nil {
		return nil, err
	}
	return &LocalCache{db: db}, nil
}

// Replace swaps the cached thread for a post with a fresh copy.
func (c *LocalCache) Replace(postID string, comments []CachedComment) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&CachedComment{}).Error; err != nil {
			return err
		}
		if len(comments) == 0 {
			return nil
		}
		for i := range comments {
			comments[i].ID = 0
			comments[i].PostID = postID
		}
		return tx.Create(&comments).Error
	})
}

// Load returns the cached thread for a post, oldest first.
func (c *LocalCache) Load(postID string) ([]CachedComment, error) {
	var comments []CachedComment
	err := c.db.Where("post_id = ?", postID).Order("created_at asc").Find(&comments).Error
	return comments, err
}

// Clear drops every cached comment for a post.
func (c *LocalCache) Clear(postID string) error {
	return c.db.Where("post_id = ?", postID).Delete(&CachedComment{}).Error
}
