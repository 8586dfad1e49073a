package integrity

import (
	"context"
	"sync"
	"testing"
	"time"

	"sazon/internal/credential"
	"sazon/internal/models"
	"sazon/internal/notifications"
	"sazon/internal/observability"
	"sazon/internal/testutil"
	"sazon/internal/validation"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *capturePublisher) Publish(_ context.Context, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) ofType(typ string) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notifications.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	engine *Engine
	events *capturePublisher
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	events := &capturePublisher{}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine := New(db,
		WithPublisher(events),
		WithClock(func() time.Time { return now }),
		WithHasher(credential.NewBcryptHasher(bcrypt.MinCost)),
	)
	return &harness{t: t, ctx: context.Background(), db: db, engine: engine, events: events, now: now}
}

func (h *harness) user(handle string) *models.User {
	h.t.Helper()
	u, err := h.engine.CreateUser(h.ctx, CreateUserInput{
		Email:          handle + "@example.com",
		Handle:         handle,
		CredentialHash: "$2a$04$hash",
	})
	require.NoError(h.t, err)
	return u
}

func (h *harness) post(author *models.User) *models.Post {
	h.t.Helper()
	p, err := h.engine.CreatePost(h.ctx, author.ID, CreatePostInput{Title: "Pozole rojo", Body: "Receta de la abuela"})
	require.NoError(h.t, err)
	return p
}

func (h *harness) comment(author *models.User, target models.Target) *models.Comment {
	h.t.Helper()
	c, err := h.engine.CreateComment(h.ctx, author.ID, "se ve delicioso", target)
	require.NoError(h.t, err)
	return c
}

func (h *harness) count(model interface{}, query string, args ...interface{}) int64 {
	h.t.Helper()
	var n int64
	q := h.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(h.t, q.Count(&n).Error)
	return n
}

func TestEngine_UserHardDeleteScenario(t *testing.T) {
	h := newHarness(t)
	u1 := h.user("user1")
	p1 := h.post(u1)
	assert.Equal(t, models.PostDraft, p1.Status)

	c1 := h.comment(u1, models.PostTarget(p1.ID))
	c2 := h.comment(u1, models.CommentTarget(c1.ID))
	like, err := h.engine.CreateReaction(h.ctx, u1.ID, models.ReactionLike, models.CommentTarget(c1.ID))
	require.NoError(t, err)

	result, err := h.engine.DeleteEntity(h.ctx, models.Ref(models.KindUser, u1.ID), DeleteOptions{Hard: true})
	require.NoError(t, err)
	assert.False(t, result.Logical)
	assert.True(t, result.Changed)
	assert.Equal(t, int64(1), result.Deleted[models.KindUser])
	assert.Equal(t, int64(1), result.Deleted[models.KindPost])
	assert.Equal(t, int64(2), result.Deleted[models.KindComment])
	assert.Equal(t, int64(1), result.Deleted[models.KindReaction])

	for _, check := range []struct {
		name string
		err  error
	}{
		{"post", errOf(h.engine.GetPost(h.ctx, p1.ID))},
		{"comment", errOf(h.engine.GetComment(h.ctx, c1.ID))},
		{"reply", errOf(h.engine.GetComment(h.ctx, c2.ID))},
		{"user", errOf(h.engine.GetUser(h.ctx, u1.ID))},
	} {
		assert.ErrorIs(t, check.err, models.ErrNotFound, check.name)
	}
	_, err = h.engine.FindReaction(h.ctx, u1.ID, models.CommentTarget(c1.ID))
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, h.count(&models.Reaction{}, "id = ?", like.ID))

	deleted := h.events.ofType(notifications.EventDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, int64(2), deleted[0].Deleted[models.KindComment])

	again, err := h.engine.DeleteEntity(h.ctx, models.Ref(models.KindUser, u1.ID), DeleteOptions{Hard: true})
	require.NoError(t, err)
	assert.Zero(t, again.Total())
	assert.Len(t, h.events.ofType(notifications.EventDeleted), 1)
}

func errOf[T any](_ T, err error) error { return err }

func TestEngine_UserDeleteLeavesNoResidue(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	other := h.user("other")

	const posts, comments, reactions = 3, 2, 2
	for i := 0; i < posts; i++ {
		p := h.post(owner)
		for j := 0; j < comments; j++ {
			c := h.comment(other, models.PostTarget(p.ID))
			h.comment(owner, models.CommentTarget(c.ID))
		}
		for j, u := range []*models.User{owner, other}[:reactions] {
			kind := models.ReactionLike
			if j%2 == 1 {
				kind = models.ReactionDislike
			}
			_, err := h.engine.CreateReaction(h.ctx, u.ID, kind, models.PostTarget(p.ID))
			require.NoError(t, err)
		}
		_, err := h.engine.CreateFavorite(h.ctx, other.ID, p.ID)
		require.NoError(t, err)
	}
	// content by other on its own post survives
	survivor := h.post(other)
	_, err := h.engine.CreateReaction(h.ctx, other.ID, models.ReactionLike, models.PostTarget(survivor.ID))
	require.NoError(t, err)

	_, err = h.engine.DeleteEntity(h.ctx, models.Ref(models.KindUser, owner.ID), DeleteOptions{})
	require.NoError(t, err)

	assert.Zero(t, h.count(&models.Post{}, "author_id = ?", owner.ID))
	assert.Zero(t, h.count(&models.Comment{}, "author_id = ?", owner.ID))
	assert.Zero(t, h.count(&models.Reaction{}, "user_id = ?", owner.ID))
	assert.Zero(t, h.count(&models.Favorite{}, ""))
	assert.Zero(t, h.count(&models.Comment{}, ""))
	assert.Equal(t, int64(1), h.count(&models.Post{}, ""))
	assert.Equal(t, int64(1), h.count(&models.Reaction{}, ""))

	report, err := h.engine.Audit(h.ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "%+v", report.Failed())
}

func TestEngine_CommentTargetRules(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	p := h.post(u)

	_, err := h.engine.CreateComment(h.ctx, u.ID, "hola", models.Target{})
	assert.ErrorIs(t, err, models.ErrInvalidAssociation)

	postID, commentID := p.ID, models.NewID()
	_, err = validation.ResolveTarget(models.TargetRef{PostID: &postID, CommentID: &commentID})
	assert.ErrorIs(t, err, models.ErrInvalidAssociation)

	_, err = h.engine.CreateComment(h.ctx, u.ID, "hola", models.PostTarget(models.NewID()))
	assert.ErrorIs(t, err, models.ErrTargetNotFound)

	_, err = h.engine.CreateComment(h.ctx, u.ID, "hola", models.CommentTarget(models.NewID()))
	assert.ErrorIs(t, err, models.ErrTargetNotFound)

	_, err = h.engine.CreateComment(h.ctx, models.NewID(), "hola", models.PostTarget(p.ID))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = h.engine.CreateComment(h.ctx, u.ID, "   ", models.PostTarget(p.ID))
	assert.ErrorIs(t, err, models.ErrValidation)

	c := h.comment(u, models.PostTarget(p.ID))
	reply := h.comment(u, models.CommentTarget(c.ID))
	assert.True(t, reply.IsReply())
	assert.Nil(t, reply.PostID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, c.ID, *reply.ParentID)

	replies, err := h.engine.ListReplies(h.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)

	top, err := h.engine.ListPostComments(h.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, c.ID, top[0].ID)

	created := h.events.ofType(notifications.EventCreated)
	last := created[len(created)-1]
	assert.Equal(t, models.KindComment, last.Kind)
	assert.Equal(t, u.ID, last.OwnerID)
}

func TestEngine_ReactionUniqueness(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	p := h.post(u)
	target := models.PostTarget(p.ID)

	r, err := h.engine.CreateReaction(h.ctx, u.ID, models.ReactionLike, target)
	require.NoError(t, err)

	_, err = h.engine.CreateReaction(h.ctx, u.ID, models.ReactionDislike, target)
	assert.ErrorIs(t, err, models.ErrDuplicateReaction)

	flipped, err := h.engine.ChangeReactionKind(h.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, flipped.ID)
	assert.Equal(t, models.ReactionDislike, flipped.Kind)
	assert.Equal(t, int64(1), h.count(&models.Reaction{}, ""))

	summary, err := h.engine.ReactionSummary(h.ctx, target)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionSummary{Likes: 0, Dislikes: 1}, summary)

	found, err := h.engine.FindReaction(h.ctx, u.ID, target)
	require.NoError(t, err)
	assert.Equal(t, r.ID, found.ID)

	_, err = h.engine.ChangeReactionKind(h.ctx, models.NewID())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = h.engine.CreateReaction(h.ctx, u.ID, "love", target)
	assert.ErrorIs(t, err, models.ErrValidation)

	// removal is an explicit delete, after which the user may react again
	res, err := h.engine.DeleteEntity(h.ctx, models.Ref(models.KindReaction, r.ID), DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted[models.KindReaction])
	_, err = h.engine.CreateReaction(h.ctx, u.ID, models.ReactionLike, target)
	assert.NoError(t, err)
}

func TestEngine_ConcurrentFavorites(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	p := h.post(u)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := h.engine.CreateFavorite(h.ctx, u.ID, p.ID)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case models.CodeOf(err) == models.CodeDuplicateFavorite:
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
	assert.Equal(t, int64(1), h.count(&models.Favorite{}, ""))
}

func TestEngine_ConcurrentReactions(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	p := h.post(u)
	c := h.comment(u, models.PostTarget(p.ID))

	for _, tc := range []struct {
		name   string
		target models.Target
		column string
	}{
		{"post", models.PostTarget(p.ID), "post_id = ?"},
		{"comment", models.CommentTarget(c.ID), "comment_id = ?"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			const workers = 8
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				errs []error
			)
			start := make(chan struct{})
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := h.engine.CreateReaction(h.ctx, u.ID, models.ReactionLike, tc.target)
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}()
			}
			close(start)
			wg.Wait()

			var ok, dup int
			for _, err := range errs {
				switch {
				case err == nil:
					ok++
				case models.CodeOf(err) == models.CodeDuplicateReaction:
					dup++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
			assert.Equal(t, 1, ok)
			assert.Equal(t, workers-1, dup)
			assert.Equal(t, int64(1), h.count(&models.Reaction{}, tc.column, tc.target.ID()))
		})
	}
}

func TestEngine_UpdateEntityRejectionsAreObserved(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	p := h.post(u)

	rejected := observability.IntegrityOperations.WithLabelValues("update_entity", models.CodeValidation)
	before := promtestutil.ToFloat64(rejected)

	_, err := h.engine.UpdateEntity(h.ctx, models.Ref(models.KindPost, p.ID), nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = h.engine.UpdateEntity(h.ctx, models.Ref(models.KindComment, p.ID), PostPatch{})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, before+2, promtestutil.ToFloat64(rejected))

	ok := observability.IntegrityOperations.WithLabelValues("update_entity", "ok")
	okBefore := promtestutil.ToFloat64(ok)
	title := "Mole poblano"
	_, err = h.engine.UpdateEntity(h.ctx, models.Ref(models.KindPost, p.ID), PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, okBefore+1, promtestutil.ToFloat64(ok))
}

func TestEngine_LogicalDeletePost(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	p := h.post(u)
	c := h.comment(u, models.PostTarget(p.ID))
	m, err := h.engine.AttachMedia(h.ctx, p.ID, "https://cdn.example.com/p.jpg", models.MediaImage)
	require.NoError(t, err)

	result, err := h.engine.DeleteEntity(h.ctx, models.Ref(models.KindPost, p.ID), DeleteOptions{})
	require.NoError(t, err)
	assert.True(t, result.Logical)
	assert.Zero(t, result.Total())
	assert.True(t, result.Changed)
	require.Len(t, h.events.ofType(notifications.EventDeleted), 1)

	// a second logical delete is a silent no-op
	again, err := h.engine.DeleteEntity(h.ctx, models.Ref(models.KindPost, p.ID), DeleteOptions{})
	require.NoError(t, err)
	assert.True(t, again.Logical)
	assert.False(t, again.Changed)
	assert.Len(t, h.events.ofType(notifications.EventDeleted), 1)

	stored, err := h.engine.GetPost(h.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostDeleted, stored.Status)
	assert.Equal(t, models.PostTombstone, stored.Body)

	_, err = h.engine.GetComment(h.ctx, c.ID)
	assert.NoError(t, err)
	media, err := h.engine.ListPostMedia(h.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, m.ID, media[0].ID)

	title := "nuevo"
	_, err = h.engine.UpdatePost(h.ctx, p.ID, PostPatch{Title: &title})
	assert.ErrorIs(t, err, models.ErrEntityDeleted)
	_, err = h.engine.UpdateEntity(h.ctx, models.Ref(models.KindPost, p.ID), PostPatch{Title: &title})
	assert.ErrorIs(t, err, models.ErrEntityDeleted)
	_, err = h.engine.PublishPost(h.ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrEntityDeleted)

	// deleted posts accept no new children
	_, err = h.engine.CreateComment(h.ctx, u.ID, "tarde", models.PostTarget(p.ID))
	assert.ErrorIs(t, err, models.ErrTargetNotFound)
	_, err = h.engine.CreateReaction(h.ctx, u.ID, models.ReactionLike, models.PostTarget(p.ID))
	assert.ErrorIs(t, err, models.ErrTargetNotFound)
	_, err = h.engine.CreateFavorite(h.ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, models.ErrTargetNotFound)

	// a tombstoned post can still be removed for good
	hard, err := h.engine.DeleteEntity(h.ctx, models.Ref(models.KindPost, p.ID), DeleteOptions{Hard: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), hard.Deleted[models.KindPost])
	assert.Equal(t, int64(1), hard.Deleted[models.KindComment])
	assert.Equal(t, int64(1), hard.Deleted[models.KindMedia])
}

func TestEngine_LogicalDeleteComment(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	p := h.post(u)
	c := h.comment(u, models.PostTarget(p.ID))
	reply := h.comment(u, models.CommentTarget(c.ID))

	_, err := h.engine.DeleteEntity(h.ctx, models.Ref(models.KindComment, c.ID), DeleteOptions{})
	require.NoError(t, err)

	stored, err := h.engine.GetComment(h.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommentTombstone, stored.Body)

	body := "editado"
	_, err = h.engine.UpdateComment(h.ctx, c.ID, CommentPatch{Body: &body})
	assert.ErrorIs(t, err, models.ErrEntityDeleted)
	_, err = h.engine.CreateComment(h.ctx, u.ID, "respuesta", models.CommentTarget(c.ID))
	assert.ErrorIs(t, err, models.ErrTargetNotFound)

	updated, err := h.engine.UpdateComment(h.ctx, reply.ID, CommentPatch{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, body, updated.Body)
}

func TestEngine_UsersAndUpdates(t *testing.T) {
	h := newHarness(t)
	ana := h.user("ana")
	h.user("beto")

	_, err := h.engine.CreateUser(h.ctx, CreateUserInput{Email: "ANA@example.com", Handle: "ana2", CredentialHash: "x"})
	assert.ErrorIs(t, err, models.ErrDuplicateUser)
	_, err = h.engine.CreateUser(h.ctx, CreateUserInput{Email: "new@example.com", Handle: "beto", CredentialHash: "x"})
	assert.ErrorIs(t, err, models.ErrDuplicateUser)
	_, err = h.engine.CreateUser(h.ctx, CreateUserInput{Email: "new@example.com", Handle: "nuevo"})
	assert.ErrorIs(t, err, models.ErrValidation)

	registered, err := h.engine.RegisterUser(h.ctx, RegisterUserInput{
		CreateUserInput: CreateUserInput{Email: "carla@example.com", Handle: "carla"},
		Password:        "Sup3rSecretPw",
	})
	require.NoError(t, err)
	assert.True(t, credential.NewBcryptHasher(bcrypt.MinCost).Verify(registered.CredentialHash, "Sup3rSecretPw"))
	_, err = h.engine.RegisterUser(h.ctx, RegisterUserInput{
		CreateUserInput: CreateUserInput{Email: "dani@example.com", Handle: "dani"},
		Password:        "short",
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	handle := "beto"
	_, err = h.engine.UpdateUser(h.ctx, ana.ID, UserPatch{Handle: &handle})
	assert.ErrorIs(t, err, models.ErrDuplicateUser)

	first, phone := "Ana", "5551234567"
	updated, err := h.engine.UpdateEntity(h.ctx, models.Ref(models.KindUser, ana.ID), UserPatch{FirstName: &first, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.(*models.User).FirstName)

	_, err = h.engine.UpdateUser(h.ctx, models.NewID(), UserPatch{FirstName: &first})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = h.engine.UpdateEntity(h.ctx, models.Ref(models.KindReaction, models.NewID()), PostPatch{})
	assert.ErrorIs(t, err, models.ErrValidation)

	p := h.post(ana)
	title := "Tamales oaxaqueños"
	edited, err := h.engine.UpdatePost(h.ctx, p.ID, PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, edited.Title)
	require.NotNil(t, edited.ModifiedAt)
	assert.True(t, edited.ModifiedAt.Equal(h.now))

	published, err := h.engine.PublishPost(h.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	again, err := h.engine.PublishPost(h.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostPublished, again.Status)

	profile, err := h.engine.Profile(h.ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.PostCount)
	assert.Zero(t, profile.CommentCount)
}

func TestEngine_MediaAndFavorites(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	p := h.post(u)

	_, err := h.engine.AttachMedia(h.ctx, p.ID, "not a url", models.MediaImage)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = h.engine.AttachMedia(h.ctx, models.NewID(), "https://cdn.example.com/x.jpg", models.MediaImage)
	assert.ErrorIs(t, err, models.ErrTargetNotFound)
	_, err = h.engine.UploadMedia(h.ctx, p.ID, "x.png", []byte("data"))
	assert.ErrorIs(t, err, models.ErrValidation)

	m, err := h.engine.AttachMedia(h.ctx, p.ID, "https://cdn.example.com/clip.mp4", models.MediaVideo)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/clip.jpg", m.ThumbnailURL())

	kind := models.MediaImage
	updated, err := h.engine.UpdateMedia(h.ctx, m.ID, MediaPatch{Kind: &kind})
	require.NoError(t, err)
	assert.Equal(t, models.MediaImage, updated.Kind)

	fav, err := h.engine.CreateFavorite(h.ctx, u.ID, p.ID)
	require.NoError(t, err)
	_, err = h.engine.CreateFavorite(h.ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, models.ErrDuplicateFavorite)

	favorites, err := h.engine.ListFavorites(h.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)

	res, err := h.engine.DeleteEntity(h.ctx, models.Ref(models.KindFavorite, fav.Key().String()), DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted[models.KindFavorite])

	res, err = h.engine.DeleteEntity(h.ctx, models.Ref(models.KindMedia, m.ID), DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted[models.KindMedia])

	_, err = h.engine.DeleteEntity(h.ctx, models.Ref("widget", "x"), DeleteOptions{})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEngine_AuditDetectsOrphans(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")
	h.post(u)

	report, err := h.engine.Audit(h.ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Len(t, report.Checks, len(auditQueries))

	// bypass the engine to plant a row the cascade would never leave behind
	require.NoError(t, h.db.Create(&models.Media{URL: "https://cdn/x.jpg", PostID: models.NewID(), UploadedAt: h.now}).Error)

	report, err = h.engine.Audit(h.ctx)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "media_without_post", report.Failed()[0].Name)
	assert.Equal(t, int64(1), report.Total())
}

func TestEngine_CancelledContext(t *testing.T) {
	h := newHarness(t)
	u := h.user("ana")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.engine.CreatePost(ctx, u.ID, CreatePostInput{Title: "x", Body: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.count(&models.Post{}, ""))
}
