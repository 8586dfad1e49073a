// Package lifecycle removes entities together with everything that depends
// on them. The dependency graph is explicit: a hard delete walks it from the
// root, plans every affected row and then deletes leaves before owners inside
// the caller's transaction.
package lifecycle

import "sazon/internal/models"

// Edge is one dependency: rows of Child kind whose Column references a row of
// Parent kind.
type Edge struct {
	Parent models.EntityKind
	Child  models.EntityKind
	Table  string
	Column string
}

var graph = map[models.EntityKind][]Edge{
	models.KindUser: {
		{Parent: models.KindUser, Child: models.KindPost, Table: "posts", Column: "author_id"},
		{Parent: models.KindUser, Child: models.KindComment, Table: "comments", Column: "author_id"},
		{Parent: models.KindUser, Child: models.KindReaction, Table: "reactions", Column: "user_id"},
		{Parent: models.KindUser, Child: models.KindFavorite, Table: "favorites", Column: "user_id"},
	},
	models.KindPost: {
		{Parent: models.KindPost, Child: models.KindComment, Table: "comments", Column: "post_id"},
		{Parent: models.KindPost, Child: models.KindReaction, Table: "reactions", Column: "post_id"},
		{Parent: models.KindPost, Child: models.KindMedia, Table: "media", Column: "post_id"},
		{Parent: models.KindPost, Child: models.KindFavorite, Table: "favorites", Column: "post_id"},
	},
	models.KindComment: {
		{Parent: models.KindComment, Child: models.KindComment, Table: "comments", Column: "parent_id"},
		{Parent: models.KindComment, Child: models.KindReaction, Table: "reactions", Column: "comment_id"},
	},
}

// Dependents lists the edges leaving kind. Reactions, media and favorites
// are leaves.
func Dependents(kind models.EntityKind) []Edge {
	return graph[kind]
}

// Edges lists every edge in the graph.
func Edges() []Edge {
	var out []Edge
	for _, kind := range []models.EntityKind{models.KindUser, models.KindPost, models.KindComment} {
		out = append(out, graph[kind]...)
	}
	return out
}

func tableOf(kind models.EntityKind) string {
	switch kind {
	case models.KindUser:
		return "users"
	case models.KindPost:
		return "posts"
	case models.KindComment:
		return "comments"
	case models.KindReaction:
		return "reactions"
	case models.KindMedia:
		return "media"
	case models.KindFavorite:
		return "favorites"
	}
	return ""
}
