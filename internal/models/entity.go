// Package models contains the six persistent entity types of the platform
// together with the identifiers and tagged target references that connect them.
package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntityKind names one of the six persistent entity types.
type EntityKind string

const (
	KindUser     EntityKind = "user"
	KindPost     EntityKind = "post"
	KindComment  EntityKind = "comment"
	KindReaction EntityKind = "reaction"
	KindMedia    EntityKind = "media"
	KindFavorite EntityKind = "favorite"
)

// AllKinds lists every entity kind in hard-delete order: leaves first, owners last.
var AllKinds = []EntityKind{KindReaction, KindFavorite, KindMedia, KindComment, KindPost, KindUser}

// Valid reports whether k is a known entity kind.
func (k EntityKind) Valid() bool {
	switch k {
	case KindUser, KindPost, KindComment, KindReaction, KindMedia, KindFavorite:
		return true
	}
	return false
}

// EntityRef identifies a single row of any kind.
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// Ref builds an EntityRef.
func Ref(kind EntityKind, id string) EntityRef {
	return EntityRef{Kind: kind, ID: id}
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// NewID returns a new random 128-bit identifier rendered as a string.
func NewID() string {
	return uuid.NewString()
}

// FavoriteKey is the composite identity of a Favorite.
type FavoriteKey struct {
	UserID string
	PostID string
}

func (k FavoriteKey) String() string {
	return k.UserID + ":" + k.PostID
}

// ParseFavoriteKey parses the "<user>:<post>" form produced by FavoriteKey.String.
func ParseFavoriteKey(s string) (FavoriteKey, error) {
	userID, postID, ok := strings.Cut(s, ":")
	if !ok || userID == "" || postID == "" {
		return FavoriteKey{}, NewValidationError(fmt.Sprintf("malformed favorite id %q", s))
	}
	return FavoriteKey{UserID: userID, PostID: postID}, nil
}
