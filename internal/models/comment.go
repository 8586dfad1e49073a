package models

import (
	"time"

	"gorm.io/gorm"
)

// CommentStatus is the lifecycle status of a comment.
type CommentStatus string

const (
	CommentActive  CommentStatus = "active"
	CommentDeleted CommentStatus = "deleted"
)

// CommentTombstone replaces the body of a logically deleted comment.
const CommentTombstone = "[comment deleted]"

// Comment is either a top-level comment on a post or a reply to another
// comment; exactly one of PostID and ParentID is set and neither changes
// after creation.
type Comment struct {
	ID        string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Body      string        `gorm:"type:text;not null" json:"body"`
	Status    CommentStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time     `gorm:"not null;index:idx_comments_created_at" json:"created_at"`
	AuthorID  string        `gorm:"type:varchar(36);not null;index:idx_comments_author" json:"author_id"`
	PostID    *string       `gorm:"type:varchar(36);index:idx_comments_post;check:chk_comments_target,(post_id IS NOT NULL AND parent_id IS NULL) OR (post_id IS NULL AND parent_id IS NOT NULL)" json:"post_id,omitempty"`
	ParentID  *string       `gorm:"type:varchar(36);index:idx_comments_parent" json:"parent_id,omitempty"`
}

// NewComment builds an active comment on target. The target is assumed to
// have passed association validation.
func NewComment(authorID, body string, target Target, now time.Time) *Comment {
	postID, parentID := target.columns()
	return &Comment{
		ID:        NewID(),
		Body:      body,
		Status:    CommentActive,
		CreatedAt: now,
		AuthorID:  authorID,
		PostID:    postID,
		ParentID:  parentID,
	}
}

// BeforeCreate assigns the identifier and default status.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.Status == "" {
		c.Status = CommentActive
	}
	return nil
}

// Target rebuilds the tagged target from the stored columns.
func (c *Comment) Target() (Target, error) {
	return targetFromColumns(c.PostID, c.ParentID)
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

func (c *Comment) IsDeleted() bool {
	return c.Status == CommentDeleted
}

// MarkDeleted performs the logical delete; replies and reactions stay.
func (c *Comment) MarkDeleted() {
	c.Status = CommentDeleted
	c.Body = CommentTombstone
}
