package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the lifecycle status of a post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostDeleted   PostStatus = "deleted"
)

// PostTombstone replaces the body of a logically deleted post.
const PostTombstone = "[post deleted]"

// Valid reports whether s is a known post status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostDraft, PostPublished, PostDeleted:
		return true
	}
	return false
}

// CanTransition reports whether a post may move from s to next.
// draft -> published -> deleted, and draft -> deleted; deleted is terminal.
func (s PostStatus) CanTransition(next PostStatus) bool {
	switch s {
	case PostDraft:
		return next == PostPublished || next == PostDeleted
	case PostPublished:
		return next == PostDeleted
	}
	return false
}

// Post is a recipe publication owned by a user.
type Post struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null;index:idx_posts_title" json:"title"`
	Body        string     `gorm:"type:text" json:"body,omitempty"`
	Status      PostStatus `gorm:"size:16;not null;index:idx_posts_status" json:"status"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	PublishedAt *time.Time `gorm:"index:idx_posts_published_at" json:"published_at,omitempty"`
	ModifiedAt  *time.Time `json:"modified_at,omitempty"`
	AuthorID    string     `gorm:"type:varchar(36);not null;index:idx_posts_author" json:"author_id"`
}

// BeforeCreate assigns the identifier and default status.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Status == "" {
		p.Status = PostDraft
	}
	return nil
}

// IsDeleted reports whether the post was logically deleted.
func (p *Post) IsDeleted() bool {
	return p.Status == PostDeleted
}

// Publish moves a draft to published and stamps the publication time.
// Publishing an already published post is a no-op.
func (p *Post) Publish(now time.Time) error {
	switch {
	case p.Status == PostPublished:
		return nil
	case p.IsDeleted():
		return NewEntityDeletedError(KindPost, p.ID)
	case !p.Status.CanTransition(PostPublished):
		return NewInvalidTransitionError(string(p.Status), string(PostPublished))
	}
	p.Status = PostPublished
	p.PublishedAt = &now
	return nil
}

// MarkDeleted performs the logical delete: status flip and content scrub.
// Comments, media, reactions and favorites stay attached.
func (p *Post) MarkDeleted(now time.Time) {
	p.Status = PostDeleted
	p.Body = PostTombstone
	p.ModifiedAt = &now
}
