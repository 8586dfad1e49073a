// Package integrity is the entry point for every write to the social core.
// Each mutation validates its input, re-reads what it depends on inside one
// transaction and publishes an event only after that transaction commits.
package integrity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sazon/internal/credential"
	"sazon/internal/lifecycle"
	"sazon/internal/media"
	"sazon/internal/models"
	"sazon/internal/notifications"
	"sazon/internal/observability"
	"sazon/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Engine holds no entity state between calls and is safe for concurrent use.
type Engine struct {
	db          *gorm.DB
	coordinator *lifecycle.Coordinator
	publisher   notifications.Publisher
	media       media.Store
	hasher      credential.Hasher
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Engine)

func WithPublisher(p notifications.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithClock replaces time.Now for every timestamp the engine assigns.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithCoordinator(c *lifecycle.Coordinator) Option {
	return func(e *Engine) {
		if c != nil {
			e.coordinator = c
		}
	}
}

func WithMediaStore(s media.Store) Option {
	return func(e *Engine) {
		e.media = s
	}
}

func WithHasher(h credential.Hasher) Option {
	return func(e *Engine) {
		if h != nil {
			e.hasher = h
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:          db,
		coordinator: lifecycle.NewCoordinator(),
		publisher:   notifications.NopPublisher{},
		hasher:      credential.NewBcryptHasher(bcrypt.DefaultCost),
		now:         time.Now,
		logger:      observability.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

// do wraps one public operation with a span, metrics and logging, and makes
// sure every error leaving the engine is an AppError.
func (e *Engine) do(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := observability.StartOperation(ctx, op, attrs...)

	err := normalizeError(fn(ctx))
	outcome := "ok"
	if err != nil {
		outcome = models.CodeOf(err)
		e.logRejection(ctx, op, err)
	}
	observability.EndOperation(span, err)
	observability.ObserveOperation(op, outcome, start)
	return err
}

func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.NewInternalError(err)
	}
	return repository.Classify(err)
}

func (e *Engine) logRejection(ctx context.Context, op string, err error) {
	code := models.CodeOf(err)
	if code == models.CodeInternal || code == models.CodeConstraintViolation {
		e.logger.ErrorContext(ctx, "integrity operation failed", slog.String("operation", op), slog.String("code", code), slog.String("error", err.Error()))
		return
	}
	e.logger.WarnContext(ctx, "integrity operation rejected", slog.String("operation", op), slog.String("code", code), slog.String("error", err.Error()))
}

// inTx runs fn in a transaction with stores bound to it.
func (e *Engine) inTx(ctx context.Context, fn func(tx *gorm.DB, stores *repository.Stores) error) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, repository.NewStores(tx))
	})
}

// stores returns non-transactional stores for reads.
func (e *Engine) stores() *repository.Stores {
	return repository.NewStores(e.db)
}

// committed logs a successful mutation and publishes its event. Publish
// failures are logged; the write is already durable.
func (e *Engine) committed(ctx context.Context, op string, event notifications.Event) {
	event.OccurredAt = e.clock()
	if event.ActorID == "" {
		event.ActorID = observability.ActorID(ctx)
	}

	attrs := []any{
		slog.String("operation", op),
		slog.String("kind", string(event.Kind)),
		slog.String("id", event.ID),
	}
	if len(event.Deleted) > 0 {
		attrs = append(attrs, slog.Any("deleted", event.Deleted))
	}
	e.logger.InfoContext(ctx, "integrity operation committed", attrs...)

	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "failed to publish integrity event",
			slog.String("operation", op), slog.String("error", err.Error()))
	}
}

func refAttrs(kind models.EntityKind, id string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("entity.kind", string(kind)),
		attribute.String("entity.id", id),
	}
}

// resolved is a target that passed the existence check.
type resolved struct {
	owner   string
	post    *models.Post
	comment *models.Comment
}

// loadTarget reads target under a shared lock. Missing and logically deleted
// targets are both TARGET_NOT_FOUND.
func loadTarget(ctx context.Context, tx *gorm.DB, target models.Target) (*resolved, error) {
	locked := repository.NewStores(repository.ForShare(tx))

	switch target.Kind() {
	case models.TargetPost:
		post, err := locked.Posts.GetByID(ctx, target.ID())
		if repository.IsNotFound(err) {
			return nil, models.NewTargetNotFoundError(target)
		}
		if err != nil {
			return nil, err
		}
		if post.IsDeleted() {
			return nil, models.NewTargetNotFoundError(target)
		}
		return &resolved{owner: post.AuthorID, post: post}, nil

	case models.TargetComment:
		comment, err := locked.Comments.GetByID(ctx, target.ID())
		if repository.IsNotFound(err) {
			return nil, models.NewTargetNotFoundError(target)
		}
		if err != nil {
			return nil, err
		}
		if comment.IsDeleted() {
			return nil, models.NewTargetNotFoundError(target)
		}
		return &resolved{owner: comment.AuthorID, comment: comment}, nil
	}
	return nil, models.NewInvalidAssociationError("no target specified")
}

// loadActor checks that the acting user exists and holds it for the rest of
// the transaction.
func loadActor(ctx context.Context, tx *gorm.DB, actorID string) (*models.User, error) {
	if actorID == "" {
		return nil, models.NewValidationError("actor is required")
	}
	return repository.NewUserRepository(repository.ForShare(tx)).GetByID(ctx, actorID)
}
