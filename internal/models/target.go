package models

import "strings"

// TargetKind tells which entity type a Target points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Target is the tagged variant {Post(id) | Comment(id)} used by comments and
// reactions. The zero value is "no target" and is rejected by validation; a
// Target holding both references cannot be constructed.
type Target struct {
	kind TargetKind
	id   string
}

// PostTarget points at a post.
func PostTarget(id string) Target {
	return Target{kind: TargetPost, id: id}
}

// CommentTarget points at a comment (for comments this is the parent).
func CommentTarget(id string) Target {
	return Target{kind: TargetComment, id: id}
}

func (t Target) Kind() TargetKind { return t.kind }
func (t Target) ID() string       { return t.id }

// IsZero reports whether no target was given.
func (t Target) IsZero() bool {
	return t.kind == "" || strings.TrimSpace(t.id) == ""
}

// EntityRef converts the target into a generic entity reference.
func (t Target) EntityRef() EntityRef {
	if t.kind == TargetComment {
		return Ref(KindComment, t.id)
	}
	return Ref(KindPost, t.id)
}

func (t Target) String() string {
	if t.IsZero() {
		return "none"
	}
	return string(t.kind) + "/" + t.id
}

// columns splits the target into the two nullable foreign-key columns.
func (t Target) columns() (postID, commentID *string) {
	if t.IsZero() {
		return nil, nil
	}
	id := t.id
	if t.kind == TargetPost {
		return &id, nil
	}
	return nil, &id
}

// TargetRef is the raw two-nullable-field payload that callers send. It is
// turned into a Target by the association validator.
type TargetRef struct {
	PostID    *string
	CommentID *string
}

// targetFromColumns rebuilds a Target from a persisted row, failing when the
// row violates the exclusive-or rule.
func targetFromColumns(postID, commentID *string) (Target, error) {
	hasPost := postID != nil && *postID != ""
	hasComment := commentID != nil && *commentID != ""
	switch {
	case hasPost && hasComment:
		return Target{}, NewInvalidAssociationError("both targets specified")
	case hasPost:
		return PostTarget(*postID), nil
	case hasComment:
		return CommentTarget(*commentID), nil
	default:
		return Target{}, NewInvalidAssociationError("no target specified")
	}
}
