package integrity

import (
	"context"
	"fmt"
	"strings"

	"sazon/internal/models"
	"sazon/internal/notifications"
	"sazon/internal/repository"
	"sazon/internal/validation"

	"gorm.io/gorm"
)

// Patch is a partial update. Nil fields are left as they are. Targets,
// owners and system timestamps have no patch field.
type Patch interface {
	EntityKind() models.EntityKind
}

type UserPatch struct {
	Email          *string
	Handle         *string
	FirstName      *string
	LastName       *string
	SecondLastName *string
	Phone          *string
	Address        *string
	AvatarURL      *string
	CredentialHash *string
}

func (UserPatch) EntityKind() models.EntityKind { return models.KindUser }

type PostPatch struct {
	Title *string
	Body  *string
}

func (PostPatch) EntityKind() models.EntityKind { return models.KindPost }

type CommentPatch struct {
	Body *string
}

func (CommentPatch) EntityKind() models.EntityKind { return models.KindComment }

type MediaPatch struct {
	Kind *models.MediaKind
}

func (MediaPatch) EntityKind() models.EntityKind { return models.KindMedia }

// UpdateEntity applies patch to ref and returns the stored entity. The typed
// update runs as a child operation of update_entity.
func (e *Engine) UpdateEntity(ctx context.Context, ref models.EntityRef, patch Patch) (any, error) {
	var out any
	err := e.do(ctx, "update_entity", refAttrs(ref.Kind, ref.ID), func(ctx context.Context) error {
		if patch == nil {
			return models.NewValidationError("patch is required")
		}
		if patch.EntityKind() != ref.Kind {
			return models.NewValidationError(fmt.Sprintf("%s patch cannot update %s", patch.EntityKind(), ref.Kind))
		}

		var err error
		switch p := patch.(type) {
		case UserPatch:
			out, err = e.UpdateUser(ctx, ref.ID, p)
		case PostPatch:
			out, err = e.UpdatePost(ctx, ref.ID, p)
		case CommentPatch:
			out, err = e.UpdateComment(ctx, ref.ID, p)
		case MediaPatch:
			out, err = e.UpdateMedia(ctx, ref.ID, p)
		default:
			err = models.NewValidationError(fmt.Sprintf("%s has no editable fields", ref.Kind))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	var (
		user   *models.User
		fields []string
	)
	err := e.do(ctx, "update_user", refAttrs(models.KindUser, id), func(ctx context.Context) error {
		return e.inTx(ctx, func(_ *gorm.DB, stores *repository.Stores) error {
			var err error
			user, err = stores.Users.GetByID(ctx, id)
			if err != nil {
				return err
			}

			identityChanged := false
			if patch.Email != nil {
				email := validation.NormalizeEmail(*patch.Email)
				if err := validation.ValidateEmail(email); err != nil {
					return err
				}
				user.Email = email
				fields = append(fields, "email")
				identityChanged = true
			}
			if patch.Handle != nil {
				handle := strings.TrimSpace(*patch.Handle)
				if err := validation.ValidateHandle(handle); err != nil {
					return err
				}
				user.Handle = handle
				fields = append(fields, "handle")
				identityChanged = true
			}
			if patch.AvatarURL != nil {
				if *patch.AvatarURL != "" {
					if err := validation.ValidateMediaURL(*patch.AvatarURL); err != nil {
						return err
					}
				}
				user.AvatarURL = *patch.AvatarURL
				fields = append(fields, "avatar_url")
			}
			if patch.CredentialHash != nil {
				if strings.TrimSpace(*patch.CredentialHash) == "" {
					return models.NewValidationError("credential hash is required")
				}
				user.CredentialHash = *patch.CredentialHash
				fields = append(fields, "credential_hash")
			}
			for _, f := range []struct {
				value  *string
				dst    *string
				column string
			}{
				{patch.FirstName, &user.FirstName, "first_name"},
				{patch.LastName, &user.LastName, "last_name"},
				{patch.SecondLastName, &user.SecondLastName, "second_last_name"},
				{patch.Phone, &user.Phone, "phone"},
				{patch.Address, &user.Address, "address"},
			} {
				if f.value != nil {
					*f.dst = strings.TrimSpace(*f.value)
					fields = append(fields, f.column)
				}
			}

			if len(fields) == 0 {
				return nil
			}
			if identityChanged {
				field, err := stores.Users.FindConflict(ctx, user.Email, user.Handle, user.ID)
				if err != nil {
					return err
				}
				if field != "" {
					return models.NewDuplicateUserError(field)
				}
			}
			return stores.Users.Update(ctx, user, fields...)
		})
	})
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		e.committed(ctx, "update_user", notifications.Event{
			Type:    notifications.EventUpdated,
			Kind:    models.KindUser,
			ID:      user.ID,
			ActorID: user.ID,
		})
	}
	return user, nil
}

// UpdatePost edits title and body and stamps modified_at.
func (e *Engine) UpdatePost(ctx context.Context, id string, patch PostPatch) (*models.Post, error) {
	var post *models.Post
	err := e.do(ctx, "update_post", refAttrs(models.KindPost, id), func(ctx context.Context) error {
		return e.inTx(ctx, func(_ *gorm.DB, stores *repository.Stores) error {
			var err error
			post, err = stores.Posts.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if post.IsDeleted() {
				return models.NewEntityDeletedError(models.KindPost, id)
			}

			if patch.Title != nil {
				title := strings.TrimSpace(*patch.Title)
				if err := validation.ValidatePostTitle(title); err != nil {
					return err
				}
				post.Title = title
			}
			if patch.Body != nil {
				if err := validation.ValidatePostBody(*patch.Body); err != nil {
					return err
				}
				post.Body = *patch.Body
			}
			now := e.clock()
			post.ModifiedAt = &now
			return stores.Posts.Update(ctx, post, "title", "body", "modified_at")
		})
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "update_post", notifications.Event{
		Type:    notifications.EventUpdated,
		Kind:    models.KindPost,
		ID:      post.ID,
		ActorID: post.AuthorID,
	})
	return post, nil
}

func (e *Engine) UpdateComment(ctx context.Context, id string, patch CommentPatch) (*models.Comment, error) {
	var comment *models.Comment
	err := e.do(ctx, "update_comment", refAttrs(models.KindComment, id), func(ctx context.Context) error {
		return e.inTx(ctx, func(_ *gorm.DB, stores *repository.Stores) error {
			var err error
			comment, err = stores.Comments.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if comment.IsDeleted() {
				return models.NewEntityDeletedError(models.KindComment, id)
			}
			if patch.Body == nil {
				return nil
			}
			if err := validation.ValidateCommentBody(*patch.Body); err != nil {
				return err
			}
			comment.Body = *patch.Body
			return stores.Comments.Update(ctx, comment, "body")
		})
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "update_comment", notifications.Event{
		Type:    notifications.EventUpdated,
		Kind:    models.KindComment,
		ID:      comment.ID,
		ActorID: comment.AuthorID,
	})
	return comment, nil
}

// UpdateMedia changes the media kind. Media of a deleted post is frozen.
func (e *Engine) UpdateMedia(ctx context.Context, id string, patch MediaPatch) (*models.Media, error) {
	var m *models.Media
	err := e.do(ctx, "update_media", refAttrs(models.KindMedia, id), func(ctx context.Context) error {
		return e.inTx(ctx, func(_ *gorm.DB, stores *repository.Stores) error {
			var err error
			m, err = stores.Media.GetByID(ctx, id)
			if err != nil {
				return err
			}
			post, err := stores.Posts.GetByID(ctx, m.PostID)
			if err != nil {
				return err
			}
			if post.IsDeleted() {
				return models.NewEntityDeletedError(models.KindPost, post.ID)
			}
			if patch.Kind == nil {
				return nil
			}
			if err := validation.ValidateMediaKind(*patch.Kind); err != nil {
				return err
			}
			m.Kind = *patch.Kind
			return stores.Media.Update(ctx, m, "kind")
		})
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, "update_media", notifications.Event{
		Type: notifications.EventUpdated,
		Kind: models.KindMedia,
		ID:   m.ID,
	})
	return m, nil
}
