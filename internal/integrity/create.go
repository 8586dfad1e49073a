package integrity

import (
	"context"
	"log/slog"
	"strings"

	"sazon/internal/models"
	"sazon/internal/notifications"
	"sazon/internal/repository"
	"sazon/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type CreateUserInput struct {
	Email          string
	Handle         string
	CredentialHash string
	FirstName      string
	LastName       string
	SecondLastName string
	Phone          string
	Address        string
	AvatarURL      string
}

// RegisterUserInput carries a plaintext password instead of a hash.
type RegisterUserInput struct {
	CreateUserInput
	Password string
}

type CreatePostInput struct {
	Title   string
	Body    string
	Publish bool
}

func (e *Engine) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	var user *models.User
	err := e.do(ctx, "create_user", nil, func(ctx context.Context) error {
		var err error
		user, err = e.createUser(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterUser validates and hashes the password, then creates the user.
// Callers that already hold an opaque hash use CreateUser.
func (e *Engine) RegisterUser(ctx context.Context, in RegisterUserInput) (*models.User, error) {
	var user *models.User
	err := e.do(ctx, "register_user", nil, func(ctx context.Context) error {
		if err := validation.ValidatePassword(in.Password); err != nil {
			return err
		}
		hash, err := e.hasher.Hash(in.Password)
		if err != nil {
			return models.NewInternalError(err)
		}
		in.CredentialHash = hash
		user, err = e.createUser(ctx, in.CreateUserInput)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (e *Engine) createUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	email := validation.NormalizeEmail(in.Email)
	handle := strings.TrimSpace(in.Handle)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidateHandle(handle); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CredentialHash) == "" {
		return nil, models.NewValidationError("credential hash is required")
	}
	if in.AvatarURL != "" {
		if err := validation.ValidateMediaURL(in.AvatarURL); err != nil {
			return nil, err
		}
	}

	user := &models.User{
		Email:          email,
		Handle:         handle,
		CredentialHash: in.CredentialHash,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		SecondLastName: strings.TrimSpace(in.SecondLastName),
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		AvatarURL:      in.AvatarURL,
		RegisteredAt:   e.clock(),
	}

	err := e.inTx(ctx, func(_ *gorm.DB, stores *repository.Stores) error {
		field, err := stores.Users.FindConflict(ctx, user.Email, user.Handle, "")
		if err != nil {
			return err
		}
		if field != "" {
			return models.NewDuplicateUserError(field)
		}
		return stores.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "create_user", notifications.Event{
		Type:    notifications.EventCreated,
		Kind:    models.KindUser,
		ID:      user.ID,
		ActorID: user.ID,
	})
	return user, nil
}

func (e *Engine) CreatePost(ctx context.Context, actorID string, in CreatePostInput) (*models.Post, error) {
	var post *models.Post
	err := e.do(ctx, "create_post", nil, func(ctx context.Context) error {
		title := strings.TrimSpace(in.Title)
		if err := validation.ValidatePostTitle(title); err != nil {
			return err
		}
		if err := validation.ValidatePostBody(in.Body); err != nil {
			return err
		}

		now := e.clock()
		post = &models.Post{
			Title:     title,
			Body:      in.Body,
			Status:    models.PostDraft,
			CreatedAt: now,
			AuthorID:  actorID,
		}
		if in.Publish {
			if err := post.Publish(now); err != nil {
				return err
			}
		}

		return e.inTx(ctx, func(tx *gorm.DB, stores *repository.Stores) error {
			if _, err := loadActor(ctx, tx, actorID); err != nil {
				return err
			}
			return stores.Posts.Create(ctx, post)
		})
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "create_post", notifications.Event{
		Type:    notifications.EventCreated,
		Kind:    models.KindPost,
		ID:      post.ID,
		ActorID: actorID,
	})
	return post, nil
}

// PublishPost moves a draft to published. Published posts are returned
// unchanged.
func (e *Engine) PublishPost(ctx context.Context, postID string) (*models.Post, error) {
	var (
		post    *models.Post
		changed bool
	)
	err := e.do(ctx, "publish_post", refAttrs(models.KindPost, postID), func(ctx context.Context) error {
		return e.inTx(ctx, func(_ *gorm.DB, stores *repository.Stores) error {
			var err error
			post, err = stores.Posts.GetByID(ctx, postID)
			if err != nil {
				return err
			}
			if post.Status == models.PostPublished {
				return nil
			}
			if err := post.Publish(e.clock()); err != nil {
				return err
			}
			changed = true
			return stores.Posts.Update(ctx, post, "status", "published_at")
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		e.committed(ctx, "publish_post", notifications.Event{
			Type:    notifications.EventUpdated,
			Kind:    models.KindPost,
			ID:      post.ID,
			ActorID: post.AuthorID,
		})
	}
	return post, nil
}

// CreateComment adds a comment to a post or a reply to a comment.
func (e *Engine) CreateComment(ctx context.Context, actorID, body string, target models.Target) (*models.Comment, error) {
	var (
		comment *models.Comment
		owner   string
	)
	err := e.do(ctx, "create_comment", targetAttrs(target), func(ctx context.Context) error {
		if err := validation.ValidateTarget(target); err != nil {
			return err
		}
		if err := validation.ValidateCommentBody(body); err != nil {
			return err
		}

		comment = models.NewComment(actorID, body, target, e.clock())
		return e.inTx(ctx, func(tx *gorm.DB, stores *repository.Stores) error {
			if _, err := loadActor(ctx, tx, actorID); err != nil {
				return err
			}
			res, err := loadTarget(ctx, tx, target)
			if err != nil {
				return err
			}
			if res.comment != nil {
				if err := validation.ValidateReply(res.comment, comment.ID); err != nil {
					return err
				}
			}
			owner = res.owner
			return stores.Comments.Create(ctx, comment)
		})
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "create_comment", notifications.Event{
		Type:    notifications.EventCreated,
		Kind:    models.KindComment,
		ID:      comment.ID,
		ActorID: actorID,
		OwnerID: owner,
	})
	return comment, nil
}

// CreateReaction records one reaction of actorID on target. A second
// reaction by the same user on the same target is DUPLICATE_REACTION.
func (e *Engine) CreateReaction(ctx context.Context, actorID string, kind models.ReactionKind, target models.Target) (*models.Reaction, error) {
	var (
		reaction *models.Reaction
		owner    string
	)
	err := e.do(ctx, "create_reaction", targetAttrs(target), func(ctx context.Context) error {
		if err := validation.ValidateTarget(target); err != nil {
			return err
		}
		if err := validation.ValidateReactionKind(kind); err != nil {
			return err
		}

		reaction = models.NewReaction(actorID, kind, target, e.clock())
		return e.inTx(ctx, func(tx *gorm.DB, stores *repository.Stores) error {
			if _, err := loadActor(ctx, tx, actorID); err != nil {
				return err
			}
			res, err := loadTarget(ctx, tx, target)
			if err != nil {
				return err
			}
			_, err = stores.Reactions.FindByUserAndTarget(ctx, actorID, target)
			switch {
			case err == nil:
				return models.NewDuplicateReactionError(actorID, target)
			case !repository.IsNotFound(err):
				return err
			}
			owner = res.owner
			return stores.Reactions.Create(ctx, reaction)
		})
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "create_reaction", notifications.Event{
		Type:    notifications.EventCreated,
		Kind:    models.KindReaction,
		ID:      reaction.ID,
		ActorID: actorID,
		OwnerID: owner,
	})
	return reaction, nil
}

// FindReaction returns the reaction of actorID on target, or NOT_FOUND.
func (e *Engine) FindReaction(ctx context.Context, actorID string, target models.Target) (*models.Reaction, error) {
	var reaction *models.Reaction
	err := e.do(ctx, "find_reaction", targetAttrs(target), func(ctx context.Context) error {
		if err := validation.ValidateTarget(target); err != nil {
			return err
		}
		var err error
		reaction, err = e.stores().Reactions.FindByUserAndTarget(ctx, actorID, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reaction, nil
}

// ChangeReactionKind flips like and dislike on the existing row.
func (e *Engine) ChangeReactionKind(ctx context.Context, reactionID string) (*models.Reaction, error) {
	var reaction *models.Reaction
	err := e.do(ctx, "change_reaction_kind", refAttrs(models.KindReaction, reactionID), func(ctx context.Context) error {
		return e.inTx(ctx, func(_ *gorm.DB, stores *repository.Stores) error {
			var err error
			reaction, err = stores.Reactions.GetByID(ctx, reactionID)
			if err != nil {
				return err
			}
			reaction.Toggle()
			return stores.Reactions.UpdateKind(ctx, reaction)
		})
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "change_reaction_kind", notifications.Event{
		Type:    notifications.EventUpdated,
		Kind:    models.KindReaction,
		ID:      reaction.ID,
		ActorID: reaction.UserID,
	})
	return reaction, nil
}

func (e *Engine) CreateFavorite(ctx context.Context, actorID, postID string) (*models.Favorite, error) {
	var (
		favorite *models.Favorite
		owner    string
	)
	err := e.do(ctx, "create_favorite", refAttrs(models.KindPost, postID), func(ctx context.Context) error {
		if strings.TrimSpace(postID) == "" {
			return models.NewValidationError("post is required")
		}

		favorite = &models.Favorite{UserID: actorID, PostID: postID, SavedAt: e.clock()}
		return e.inTx(ctx, func(tx *gorm.DB, stores *repository.Stores) error {
			if _, err := loadActor(ctx, tx, actorID); err != nil {
				return err
			}
			res, err := loadTarget(ctx, tx, models.PostTarget(postID))
			if err != nil {
				return err
			}
			_, err = stores.Favorites.Get(ctx, favorite.Key())
			switch {
			case err == nil:
				return models.NewDuplicateFavoriteError(actorID, postID)
			case !repository.IsNotFound(err):
				return err
			}
			owner = res.owner
			return stores.Favorites.Create(ctx, favorite)
		})
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "create_favorite", notifications.Event{
		Type:    notifications.EventCreated,
		Kind:    models.KindFavorite,
		ID:      favorite.Key().String(),
		ActorID: actorID,
		OwnerID: owner,
	})
	return favorite, nil
}

// AttachMedia records already stored media on a post.
func (e *Engine) AttachMedia(ctx context.Context, postID, url string, kind models.MediaKind) (*models.Media, error) {
	var m *models.Media
	err := e.do(ctx, "attach_media", refAttrs(models.KindPost, postID), func(ctx context.Context) error {
		if err := validation.ValidateMediaURL(url); err != nil {
			return err
		}
		var err error
		m, err = e.attachMedia(ctx, postID, url, kind)
		if err != nil {
			e.discardUpload(ctx, url)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// discardUpload removes stored bytes no Media row references. Stored files
// are content-addressed, so an earlier upload may share url.
func (e *Engine) discardUpload(ctx context.Context, url string) {
	ctx = context.WithoutCancel(ctx)
	refs, err := e.stores().Media.CountByURL(ctx, url)
	if err == nil && refs == 0 {
		err = e.media.Delete(ctx, url)
	}
	if err != nil {
		e.logger.WarnContext(ctx, "failed to discard unattached upload",
			slog.String("url", url), slog.String("error", err.Error()))
	}
}

// UploadMedia stores data through the media store and attaches the result.
// The post is checked before the bytes are written.
func (e *Engine) UploadMedia(ctx context.Context, postID, filename string, data []byte) (*models.Media, error) {
	var m *models.Media
	err := e.do(ctx, "upload_media", refAttrs(models.KindPost, postID), func(ctx context.Context) error {
		if e.media == nil {
			return models.NewValidationError("media uploads are not configured")
		}
		if _, err := livePost(ctx, e.db.WithContext(ctx), postID); err != nil {
			return err
		}
		url, kind, err := e.media.Put(ctx, filename, data)
		if err != nil {
			return err
		}
		m, err = e.attachMedia(ctx, postID, url, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (e *Engine) attachMedia(ctx context.Context, postID, url string, kind models.MediaKind) (*models.Media, error) {
	if kind == "" {
		kind = models.MediaImage
	}
	if err := validation.ValidateMediaKind(kind); err != nil {
		return nil, err
	}

	m := &models.Media{URL: url, Kind: kind, UploadedAt: e.clock(), PostID: postID}
	var owner string
	err := e.inTx(ctx, func(tx *gorm.DB, stores *repository.Stores) error {
		post, err := livePost(ctx, tx, postID)
		if err != nil {
			return err
		}
		owner = post.AuthorID
		return stores.Media.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "attach_media", notifications.Event{
		Type:    notifications.EventCreated,
		Kind:    models.KindMedia,
		ID:      m.ID,
		ActorID: owner,
	})
	return m, nil
}

// livePost returns postID when it exists and is not logically deleted.
func livePost(ctx context.Context, tx *gorm.DB, postID string) (*models.Post, error) {
	res, err := loadTarget(ctx, tx, models.PostTarget(postID))
	if err != nil {
		return nil, err
	}
	return res.post, nil
}

func targetAttrs(target models.Target) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("target.kind", string(target.Kind())),
		attribute.String("target.id", target.ID()),
	}
}
