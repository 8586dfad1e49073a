package models

import "time"

// Favorite links a user to a post it saved. The pair is the identity, so a
// user can save a post only once.
type Favorite struct {
	UserID  string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	PostID  string    `gorm:"type:varchar(36);primaryKey;index:idx_favorites_post" json:"post_id"`
	SavedAt time.Time `gorm:"not null;index:idx_favorites_saved_at" json:"saved_at"`
}

// Key returns the composite identity.
func (f *Favorite) Key() FavoriteKey {
	return FavoriteKey{UserID: f.UserID, PostID: f.PostID}
}
