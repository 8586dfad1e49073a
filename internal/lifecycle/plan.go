package lifecycle

import (
	"sort"

	"sazon/internal/models"
)

// PlannedComment is a comment scheduled for removal with its depth inside
// the plan: 0 when its parent is not being removed, parent depth + 1 otherwise.
type PlannedComment struct {
	ID       string
	ParentID string
	Depth    int
}

// Plan is the full set of rows a hard delete of Root removes. An empty plan
// means the root does not exist.
type Plan struct {
	Root      models.EntityRef
	Users     []string
	Posts     []string
	Comments  []PlannedComment
	Reactions []string
	Media     []string
	Favorites []models.FavoriteKey

	seen map[models.EntityRef]struct{}
}

func newPlan(root models.EntityRef) *Plan {
	return &Plan{Root: root, seen: make(map[models.EntityRef]struct{})}
}

// add records a row once; it reports false for rows already planned.
func (p *Plan) add(kind models.EntityKind, r row) bool {
	ref := models.Ref(kind, r.key(kind))
	if _, ok := p.seen[ref]; ok {
		return false
	}
	p.seen[ref] = struct{}{}

	switch kind {
	case models.KindUser:
		p.Users = append(p.Users, r.ID)
	case models.KindPost:
		p.Posts = append(p.Posts, r.ID)
	case models.KindComment:
		parent := ""
		if r.ParentID != nil {
			parent = *r.ParentID
		}
		p.Comments = append(p.Comments, PlannedComment{ID: r.ID, ParentID: parent})
	case models.KindReaction:
		p.Reactions = append(p.Reactions, r.ID)
	case models.KindMedia:
		p.Media = append(p.Media, r.ID)
	case models.KindFavorite:
		p.Favorites = append(p.Favorites, models.FavoriteKey{UserID: r.UserID, PostID: r.PostID})
	}
	return true
}

// Contains reports whether the plan removes ref.
func (p *Plan) Contains(ref models.EntityRef) bool {
	_, ok := p.seen[ref]
	return ok
}

// Empty reports whether nothing will be removed.
func (p *Plan) Empty() bool {
	return len(p.seen) == 0
}

// Len is the number of rows the plan removes.
func (p *Plan) Len() int {
	return len(p.seen)
}

// Counts returns planned rows per kind.
func (p *Plan) Counts() map[models.EntityKind]int {
	return map[models.EntityKind]int{
		models.KindUser:     len(p.Users),
		models.KindPost:     len(p.Posts),
		models.KindComment:  len(p.Comments),
		models.KindReaction: len(p.Reactions),
		models.KindMedia:    len(p.Media),
		models.KindFavorite: len(p.Favorites),
	}
}

// resolveDepths computes comment depths from the parent chain and orders
// the comments deepest first.
func (p *Plan) resolveDepths() {
	byID := make(map[string]int, len(p.Comments))
	for i, c := range p.Comments {
		byID[c.ID] = i
	}

	depth := make(map[string]int, len(p.Comments))
	var walk func(id string, guard int) int
	walk = func(id string, guard int) int {
		if d, ok := depth[id]; ok {
			return d
		}
		idx := byID[id]
		parent := p.Comments[idx].ParentID
		d := 0
		if _, planned := byID[parent]; planned && parent != "" && guard < len(p.Comments) {
			d = walk(parent, guard+1) + 1
		}
		depth[id] = d
		return d
	}

	for i := range p.Comments {
		p.Comments[i].Depth = walk(p.Comments[i].ID, 0)
	}

	sort.SliceStable(p.Comments, func(i, j int) bool {
		return p.Comments[i].Depth > p.Comments[j].Depth
	})
}

// row is what the walk reads for each dependent row.
type row struct {
	ID       string
	ParentID *string
	UserID   string
	PostID   string
}

func (r row) key(kind models.EntityKind) string {
	if kind == models.KindFavorite {
		return models.FavoriteKey{UserID: r.UserID, PostID: r.PostID}.String()
	}
	return r.ID
}
