package lifecycle

import (
	"context"
	"testing"
	"time"

	"sazon/internal/models"
	"sazon/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, db: testutil.NewSQLiteDB(t), now: time.Now().UTC()}
}

func (f *fixture) user(handle string) *models.User {
	u := &models.User{Email: handle + "@example.com", Handle: handle, CredentialHash: "hash", RegisteredAt: f.now}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) post(author *models.User) *models.Post {
	p := &models.Post{Title: "Mole poblano", Body: "chiles", AuthorID: author.ID, CreatedAt: f.now}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

func (f *fixture) comment(author *models.User, target models.Target) *models.Comment {
	c := models.NewComment(author.ID, "nice", target, f.now)
	require.NoError(f.t, f.db.Create(c).Error)
	return c
}

func (f *fixture) reaction(user *models.User, target models.Target) *models.Reaction {
	r := models.NewReaction(user.ID, models.ReactionLike, target, f.now)
	require.NoError(f.t, f.db.Create(r).Error)
	return r
}

func (f *fixture) count(model interface{}) int64 {
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) hardDelete(c *Coordinator, root models.EntityRef) *Result {
	var result *Result
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = c.HardDelete(context.Background(), tx, root)
		return err
	})
	require.NoError(f.t, err)
	return result
}

func TestHardDelete_UserCascadesTransitively(t *testing.T) {
	f := newFixture(t)
	u1 := f.user("ana")
	u2 := f.user("beto")
	p1 := f.post(u1)
	c1 := f.comment(u2, models.PostTarget(p1.ID))
	c2 := f.comment(u2, models.CommentTarget(c1.ID))
	c3 := f.comment(u2, models.CommentTarget(c2.ID))
	f.reaction(u1, models.CommentTarget(c1.ID))
	f.reaction(u2, models.PostTarget(p1.ID))
	require.NoError(t, f.db.Create(&models.Media{URL: "https://cdn/x.png", PostID: p1.ID, UploadedAt: f.now}).Error)
	require.NoError(t, f.db.Create(&models.Favorite{UserID: u2.ID, PostID: p1.ID, SavedAt: f.now}).Error)

	// unrelated content by u2 survives
	p2 := f.post(u2)
	f.reaction(u2, models.PostTarget(p2.ID))

	c := NewCoordinator(WithBatchSize(2))
	result := f.hardDelete(c, models.Ref(models.KindUser, u1.ID))

	assert.Equal(t, int64(1), result.Deleted[models.KindUser])
	assert.Equal(t, int64(1), result.Deleted[models.KindPost])
	assert.Equal(t, int64(3), result.Deleted[models.KindComment])
	assert.Equal(t, int64(2), result.Deleted[models.KindReaction])
	assert.Equal(t, int64(1), result.Deleted[models.KindMedia])
	assert.Equal(t, int64(1), result.Deleted[models.KindFavorite])

	assert.Equal(t, int64(1), f.count(&models.User{}))
	assert.Equal(t, int64(1), f.count(&models.Post{}))
	assert.Equal(t, int64(0), f.count(&models.Comment{}))
	assert.Equal(t, int64(1), f.count(&models.Reaction{}))
	assert.Equal(t, int64(0), f.count(&models.Media{}))
	assert.Equal(t, int64(0), f.count(&models.Favorite{}))

	var survivor models.Comment
	assert.ErrorIs(t, f.db.Where("id = ?", c3.ID).First(&survivor).Error, gorm.ErrRecordNotFound)

	// second call is a no-op success
	again := f.hardDelete(c, models.Ref(models.KindUser, u1.ID))
	assert.Zero(t, again.Total())
}

func TestPlan_OrdersCommentsDeepestFirst(t *testing.T) {
	f := newFixture(t)
	u := f.user("ana")
	p := f.post(u)
	root := f.comment(u, models.PostTarget(p.ID))
	mid := f.comment(u, models.CommentTarget(root.ID))
	leaf := f.comment(u, models.CommentTarget(mid.ID))
	sibling := f.comment(u, models.CommentTarget(root.ID))

	var plan *Plan
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		plan, err = NewCoordinator().Plan(context.Background(), tx, models.Ref(models.KindPost, p.ID))
		return err
	}))

	depths := make(map[string]int)
	for _, pc := range plan.Comments {
		depths[pc.ID] = pc.Depth
	}
	assert.Equal(t, 0, depths[root.ID])
	assert.Equal(t, 1, depths[mid.ID])
	assert.Equal(t, 1, depths[sibling.ID])
	assert.Equal(t, 2, depths[leaf.ID])
	assert.Equal(t, leaf.ID, plan.Comments[0].ID)
	assert.Equal(t, root.ID, plan.Comments[len(plan.Comments)-1].ID)
	assert.True(t, plan.Contains(models.Ref(models.KindPost, p.ID)))
	assert.False(t, plan.Contains(models.Ref(models.KindUser, u.ID)))
}

func TestPlan_MissingRootIsEmpty(t *testing.T) {
	f := newFixture(t)
	plan, err := NewCoordinator().Plan(context.Background(), f.db, models.Ref(models.KindComment, models.NewID()))
	require.NoError(t, err)
	assert.True(t, plan.Empty())

	_, err = NewCoordinator().Plan(context.Background(), f.db, models.Ref("widget", "x"))
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestHardDelete_FavoriteByCompositeKey(t *testing.T) {
	f := newFixture(t)
	u := f.user("ana")
	p := f.post(u)
	fav := &models.Favorite{UserID: u.ID, PostID: p.ID, SavedAt: f.now}
	require.NoError(t, f.db.Create(fav).Error)

	result := f.hardDelete(NewCoordinator(), models.Ref(models.KindFavorite, fav.Key().String()))
	assert.Equal(t, int64(1), result.Deleted[models.KindFavorite])
	assert.Equal(t, int64(1), f.count(&models.Post{}))
	assert.Equal(t, int64(0), f.count(&models.Favorite{}))
}

func TestHardDelete_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	u := f.user("ana")
	p := f.post(u)
	f.comment(u, models.PostTarget(p.ID))

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if _, err := NewCoordinator().HardDelete(context.Background(), tx, models.Ref(models.KindUser, u.ID)); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, int64(1), f.count(&models.User{}))
	assert.Equal(t, int64(1), f.count(&models.Post{}))
	assert.Equal(t, int64(1), f.count(&models.Comment{}))
}

func TestLogicalDelete_KeepsChildren(t *testing.T) {
	f := newFixture(t)
	u := f.user("ana")
	p := f.post(u)
	c := f.comment(u, models.PostTarget(p.ID))
	reply := f.comment(u, models.CommentTarget(c.ID))

	c0 := NewCoordinator()
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		res, err := c0.LogicalDelete(context.Background(), tx, models.Ref(models.KindComment, c.ID), f.now)
		if err == nil {
			assert.True(t, res.Changed)
		}
		return err
	}))

	var stored models.Comment
	require.NoError(t, f.db.Where("id = ?", c.ID).First(&stored).Error)
	assert.Equal(t, models.CommentDeleted, stored.Status)
	assert.Equal(t, models.CommentTombstone, stored.Body)

	var child models.Comment
	require.NoError(t, f.db.Where("id = ?", reply.ID).First(&child).Error)
	assert.Equal(t, models.CommentActive, child.Status)

	// repeat and missing rows are no-ops
	res, err := c0.LogicalDelete(context.Background(), f.db, models.Ref(models.KindComment, c.ID), f.now)
	require.NoError(t, err)
	assert.True(t, res.Logical)
	assert.False(t, res.Changed)
	_, err = c0.LogicalDelete(context.Background(), f.db, models.Ref(models.KindPost, models.NewID()), f.now)
	require.NoError(t, err)
	_, err = c0.LogicalDelete(context.Background(), f.db, models.Ref(models.KindUser, u.ID), f.now)
	assert.Equal(t, models.CodeValidation, models.CodeOf(err))
}

func TestEdges_CoverDependencyGraph(t *testing.T) {
	assert.Len(t, Edges(), 10)
	assert.Empty(t, Dependents(models.KindReaction))
	assert.Empty(t, Dependents(models.KindMedia))
	assert.Empty(t, Dependents(models.KindFavorite))
}
