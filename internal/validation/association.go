// Package validation holds the pure checks that run before any transaction
// opens: association shape rules for comments and reactions and the field
// rules for accounts and content.
package validation

import (
	"strings"

	"sazon/internal/models"
)

const (
	ruleNoTarget    = "no target specified"
	ruleBothTargets = "both targets specified"
	ruleSelfParent  = "comment cannot be its own parent"
)

func present(id *string) bool {
	return id != nil && strings.TrimSpace(*id) != ""
}

// ResolveTarget turns a raw {post, comment} pair into a Target. Exactly one
// side must be set.
func ResolveTarget(ref models.TargetRef) (models.Target, error) {
	hasPost, hasComment := present(ref.PostID), present(ref.CommentID)
	switch {
	case hasPost && hasComment:
		return models.Target{}, models.NewInvalidAssociationError(ruleBothTargets)
	case hasPost:
		return models.PostTarget(strings.TrimSpace(*ref.PostID)), nil
	case hasComment:
		return models.CommentTarget(strings.TrimSpace(*ref.CommentID)), nil
	}
	return models.Target{}, models.NewInvalidAssociationError(ruleNoTarget)
}

// ValidateTarget rejects the zero Target.
func ValidateTarget(t models.Target) error {
	if t.IsZero() {
		return models.NewInvalidAssociationError(ruleNoTarget)
	}
	switch t.Kind() {
	case models.TargetPost, models.TargetComment:
		return nil
	}
	return models.NewInvalidAssociationError(ruleNoTarget)
}

// ValidateReply checks that a new comment with childID may answer parent.
// Parents are fixed at creation, so refusing self-reference is enough to keep
// the reply graph acyclic.
func ValidateReply(parent *models.Comment, childID string) error {
	if parent == nil {
		return models.NewInvalidAssociationError(ruleNoTarget)
	}
	if childID != "" && parent.ID == childID {
		return models.NewInvalidAssociationError(ruleSelfParent)
	}
	return nil
}
