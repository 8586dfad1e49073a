package models

import (
	"time"

	"gorm.io/gorm"
)

// ReactionKind is like or dislike.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether k is a known reaction kind.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Opposite returns the other kind.
func (k ReactionKind) Opposite() ReactionKind {
	if k == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// Reaction is a user's like or dislike on a post or on a comment.
// A user holds at most one reaction per target.
type Reaction struct {
	ID        string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	Kind      ReactionKind `gorm:"size:16;not null" json:"kind"`
	UserID    string       `gorm:"type:varchar(36);not null;index:idx_reactions_user_post,unique;index:idx_reactions_user_comment,unique;index:idx_reactions_user" json:"user_id"`
	PostID    *string      `gorm:"type:varchar(36);index:idx_reactions_user_post,unique;index:idx_reactions_post;check:chk_reactions_target,(post_id IS NOT NULL AND comment_id IS NULL) OR (post_id IS NULL AND comment_id IS NOT NULL)" json:"post_id,omitempty"`
	CommentID *string      `gorm:"type:varchar(36);index:idx_reactions_user_comment,unique;index:idx_reactions_comment" json:"comment_id,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

// NewReaction builds a reaction of kind on target.
func NewReaction(userID string, kind ReactionKind, target Target, now time.Time) *Reaction {
	postID, commentID := target.columns()
	return &Reaction{
		ID:        NewID(),
		Kind:      kind,
		UserID:    userID,
		PostID:    postID,
		CommentID: commentID,
		CreatedAt: now,
	}
}

func (r *Reaction) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	return nil
}

// Target rebuilds the tagged target from the stored columns.
func (r *Reaction) Target() (Target, error) {
	return targetFromColumns(r.PostID, r.CommentID)
}

// Toggle flips like and dislike in place.
func (r *Reaction) Toggle() {
	r.Kind = r.Kind.Opposite()
}

// ReactionSummary counts the reactions on one target.
type ReactionSummary struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}
