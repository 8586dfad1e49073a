package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"sazon/internal/models"
	"sazon/internal/observability"
	"sazon/internal/repository"

	"gorm.io/gorm"
)

// DefaultBatchSize bounds the number of ids per IN clause.
const DefaultBatchSize = 500

// Result reports what one delete did.
type Result struct {
	Root models.EntityRef `json:"root"`
	// Logical is set when the root was tombstoned instead of removed.
	Logical bool `json:"logical"`
	// Changed reports whether this call altered anything. A repeated logical
	// delete leaves it false.
	Changed bool                        `json:"changed"`
	Deleted map[models.EntityKind]int64 `json:"deleted"`
}

func newResult(root models.EntityRef) *Result {
	return &Result{Root: root, Deleted: make(map[models.EntityKind]int64)}
}

// LogicalResult describes a tombstoning delete.
func LogicalResult(root models.EntityRef) *Result {
	r := newResult(root)
	r.Logical = true
	return r
}

// Total is the number of rows removed.
func (r *Result) Total() int64 {
	var total int64
	for _, n := range r.Deleted {
		total += n
	}
	return total
}

// Coordinator plans and executes cascading hard deletes. It keeps no state
// between calls and is safe for concurrent use.
type Coordinator struct {
	batchSize int
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBatchSize sets the number of ids deleted per statement.
func WithBatchSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{batchSize: DefaultBatchSize, logger: observability.Logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HardDelete removes root and everything reachable from it. A missing root is
// a no-op. tx must be a transaction; on error the caller rolls it back.
func (c *Coordinator) HardDelete(ctx context.Context, tx *gorm.DB, root models.EntityRef) (*Result, error) {
	plan, err := c.Plan(ctx, tx, root)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, tx, plan)
}

// Plan walks the dependency graph from root and collects every row to remove.
func (c *Coordinator) Plan(ctx context.Context, tx *gorm.DB, root models.EntityRef) (*Plan, error) {
	if !root.Kind.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown entity kind %q", root.Kind))
	}

	plan := newPlan(root)
	rootRow, found, err := c.loadRoot(ctx, tx, root)
	if err != nil {
		return nil, err
	}
	if !found {
		return plan, nil
	}
	plan.add(root.Kind, rootRow)

	frontier := map[models.EntityKind][]string{root.Kind: {rootRow.ID}}
	for len(frontier) > 0 {
		next := make(map[models.EntityKind][]string)
		for kind, ids := range frontier {
			for _, edge := range Dependents(kind) {
				rows, err := c.children(ctx, tx, edge, ids)
				if err != nil {
					return nil, err
				}
				for _, r := range rows {
					if plan.add(edge.Child, r) && len(Dependents(edge.Child)) > 0 {
						next[edge.Child] = append(next[edge.Child], r.ID)
					}
				}
			}
		}
		frontier = next
	}

	plan.resolveDepths()
	c.logger.DebugContext(ctx, "cascade planned",
		slog.String("root", root.String()),
		slog.Int("rows", plan.Len()),
	)
	return plan, nil
}

func (c *Coordinator) loadRoot(ctx context.Context, tx *gorm.DB, root models.EntityRef) (row, bool, error) {
	var rows []row
	q := tx.WithContext(ctx).Table(tableOf(root.Kind))

	switch root.Kind {
	case models.KindFavorite:
		key, err := models.ParseFavoriteKey(root.ID)
		if err != nil {
			return row{}, false, err
		}
		q = q.Select("user_id, post_id").Where("user_id = ? AND post_id = ?", key.UserID, key.PostID)
	case models.KindComment:
		q = q.Select("id, parent_id").Where("id = ?", root.ID)
	default:
		q = q.Select("id").Where("id = ?", root.ID)
	}

	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return row{}, false, models.NewInternalError(err)
	}
	if len(rows) == 0 {
		return row{}, false, nil
	}
	return rows[0], true, nil
}

func selectColumns(kind models.EntityKind) string {
	switch kind {
	case models.KindComment:
		return "id, parent_id"
	case models.KindFavorite:
		return "user_id, post_id"
	}
	return "id"
}

// children resolves one edge for a set of parent ids.
func (c *Coordinator) children(ctx context.Context, tx *gorm.DB, edge Edge, parents []string) ([]row, error) {
	var out []row
	for _, chunk := range chunks(parents, c.batchSize) {
		var rows []row
		err := tx.WithContext(ctx).
			Table(edge.Table).
			Select(selectColumns(edge.Child)).
			Where(edge.Column+" IN ?", chunk).
			Scan(&rows).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Execute deletes the planned rows: reactions, favorites, media, comments
// deepest first, posts, then users.
func (c *Coordinator) Execute(ctx context.Context, tx *gorm.DB, plan *Plan) (*Result, error) {
	result := newResult(plan.Root)
	if plan.Empty() {
		return result, nil
	}

	commentIDs := make([]string, len(plan.Comments))
	for i, pc := range plan.Comments {
		commentIDs[i] = pc.ID
	}

	steps := []struct {
		kind  models.EntityKind
		model interface{}
		ids   []string
	}{
		{models.KindReaction, &models.Reaction{}, plan.Reactions},
		{models.KindFavorite, nil, nil},
		{models.KindMedia, &models.Media{}, plan.Media},
		{models.KindComment, &models.Comment{}, commentIDs},
		{models.KindPost, &models.Post{}, plan.Posts},
		{models.KindUser, &models.User{}, plan.Users},
	}

	for _, step := range steps {
		var (
			n   int64
			err error
		)
		if step.kind == models.KindFavorite {
			n, err = c.deleteFavorites(ctx, tx, plan.Favorites)
		} else {
			n, err = c.deleteIDs(ctx, tx, step.model, step.ids)
		}
		if err != nil {
			return nil, fmt.Errorf("cascade delete %s: %w", step.kind, err)
		}
		if n > 0 {
			result.Deleted[step.kind] = n
		}
	}

	result.Changed = result.Total() > 0
	c.logger.DebugContext(ctx, "cascade executed",
		slog.String("root", plan.Root.String()),
		slog.Int64("rows", result.Total()),
	)
	return result, nil
}

func (c *Coordinator) deleteIDs(ctx context.Context, tx *gorm.DB, model interface{}, ids []string) (int64, error) {
	var total int64
	for _, chunk := range chunks(ids, c.batchSize) {
		res := tx.WithContext(ctx).Where("id IN ?", chunk).Delete(model)
		if res.Error != nil {
			return total, repository.Classify(res.Error)
		}
		total += res.RowsAffected
	}
	return total, nil
}

func (c *Coordinator) deleteFavorites(ctx context.Context, tx *gorm.DB, keys []models.FavoriteKey) (int64, error) {
	var total int64
	for start := 0; start < len(keys); start += c.batchSize {
		end := min(start+c.batchSize, len(keys))
		batch := keys[start:end]

		q := tx.WithContext(ctx).Where("user_id = ? AND post_id = ?", batch[0].UserID, batch[0].PostID)
		for _, k := range batch[1:] {
			q = q.Or("user_id = ? AND post_id = ?", k.UserID, k.PostID)
		}
		res := q.Delete(&models.Favorite{})
		if res.Error != nil {
			return total, repository.Classify(res.Error)
		}
		total += res.RowsAffected
	}
	return total, nil
}

func chunks(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		out = append(out, ids[start:min(start+size, len(ids))])
	}
	return out
}
