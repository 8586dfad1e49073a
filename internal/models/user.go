package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered account. It owns posts, comments, reactions and
// favorites; deleting a user removes all of them.
type User struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email          string    `gorm:"size:100;not null;uniqueIndex:idx_users_email" json:"email"`
	Handle         string    `gorm:"size:100;not null;uniqueIndex:idx_users_handle" json:"handle"`
	CredentialHash string    `gorm:"size:100;not null" json:"-"`
	FirstName      string    `gorm:"size:255" json:"first_name,omitempty"`
	LastName       string    `gorm:"size:255" json:"last_name,omitempty"`
	SecondLastName string    `gorm:"size:255" json:"second_last_name,omitempty"`
	Phone          string    `gorm:"size:20" json:"phone,omitempty"`
	Address        string    `gorm:"size:150" json:"address,omitempty"`
	AvatarURL      string    `gorm:"size:500" json:"avatar_url,omitempty"`
	RegisteredAt   time.Time `gorm:"not null" json:"registered_at"`
}

// BeforeCreate assigns the identifier when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// Profile is a user together with the sizes of what it owns.
type Profile struct {
	User          User  `json:"user"`
	PostCount     int64 `json:"post_count"`
	CommentCount  int64 `json:"comment_count"`
	FavoriteCount int64 `json:"favorite_count"`
}
