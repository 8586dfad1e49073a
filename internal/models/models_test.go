package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget_ColumnsRoundTrip(t *testing.T) {
	post, comment := PostTarget("p1").columns()
	require.NotNil(t, post)
	assert.Nil(t, comment)
	assert.Equal(t, "p1", *post)

	post, comment = CommentTarget("c1").columns()
	assert.Nil(t, post)
	require.NotNil(t, comment)
	assert.Equal(t, "c1", *comment)

	post, comment = Target{}.columns()
	assert.Nil(t, post)
	assert.Nil(t, comment)
}

func TestTargetFromColumns(t *testing.T) {
	p, c := "p1", "c1"

	tests := []struct {
		name      string
		postID    *string
		commentID *string
		want      Target
		wantRule  string
	}{
		{name: "post", postID: &p, want: PostTarget("p1")},
		{name: "comment", commentID: &c, want: CommentTarget("c1")},
		{name: "both", postID: &p, commentID: &c, wantRule: "both targets specified"},
		{name: "neither", wantRule: "no target specified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := targetFromColumns(tt.postID, tt.commentID)
			if tt.wantRule != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAssociation))
				assert.Equal(t, tt.wantRule, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTarget_EntityRef(t *testing.T) {
	assert.Equal(t, Ref(KindPost, "p1"), PostTarget("p1").EntityRef())
	assert.Equal(t, Ref(KindComment, "c1"), CommentTarget("c1").EntityRef())
	assert.True(t, Target{}.IsZero())
	assert.True(t, PostTarget("  ").IsZero())
	assert.Equal(t, "none", Target{}.String())
	assert.Equal(t, "comment/c1", CommentTarget("c1").String())
}

func TestPostStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to PostStatus
		want     bool
	}{
		{PostDraft, PostPublished, true},
		{PostDraft, PostDeleted, true},
		{PostPublished, PostDeleted, true},
		{PostPublished, PostDraft, false},
		{PostDeleted, PostPublished, false},
		{PostDeleted, PostDraft, false},
		{PostDeleted, PostDeleted, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestPost_Publish(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	p := &Post{ID: "p1", Status: PostDraft}
	require.NoError(t, p.Publish(now))
	assert.Equal(t, PostPublished, p.Status)
	require.NotNil(t, p.PublishedAt)
	assert.Equal(t, now, *p.PublishedAt)

	// second publish keeps the original timestamp
	require.NoError(t, p.Publish(now.Add(time.Hour)))
	assert.Equal(t, now, *p.PublishedAt)

	p.MarkDeleted(now)
	err := p.Publish(now)
	assert.True(t, errors.Is(err, ErrEntityDeleted))
	assert.Equal(t, PostTombstone, p.Body)
}

func TestComment_MarkDeleted(t *testing.T) {
	c := NewComment("u1", "hello", PostTarget("p1"), time.Now())
	assert.Equal(t, CommentActive, c.Status)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.IsReply())

	c.MarkDeleted()
	assert.True(t, c.IsDeleted())
	assert.Equal(t, CommentTombstone, c.Body)

	target, err := c.Target()
	require.NoError(t, err)
	assert.Equal(t, PostTarget("p1"), target)
}

func TestReaction_Toggle(t *testing.T) {
	r := NewReaction("u1", ReactionLike, CommentTarget("c1"), time.Now())
	r.Toggle()
	assert.Equal(t, ReactionDislike, r.Kind)
	r.Toggle()
	assert.Equal(t, ReactionLike, r.Kind)
	assert.False(t, ReactionKind("love").Valid())
}

func TestMedia_ThumbnailURL(t *testing.T) {
	tests := []struct {
		name string
		m    Media
		want string
	}{
		{"image", Media{URL: "https://cdn/x.png", Kind: MediaImage}, "https://cdn/x.png"},
		{"mp4", Media{URL: "https://cdn/x.mp4", Kind: MediaVideo}, "https://cdn/x.jpg"},
		{"mov upper", Media{URL: "https://cdn/x.MOV", Kind: MediaVideo}, "https://cdn/x.jpg"},
		{"other video", Media{URL: "https://cdn/x.webm", Kind: MediaVideo}, "https://cdn/x.webm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.ThumbnailURL())
		})
	}
}

func TestFavoriteKey(t *testing.T) {
	f := Favorite{UserID: "u1", PostID: "p1"}
	assert.Equal(t, "u1:p1", f.Key().String())

	k, err := ParseFavoriteKey("u1:p1")
	require.NoError(t, err)
	assert.Equal(t, f.Key(), k)

	_, err = ParseFavoriteKey("u1")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestAppError_Is(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewDuplicateFavoriteError("u1", "p1"))
	assert.True(t, errors.Is(err, ErrDuplicateFavorite))
	assert.False(t, errors.Is(err, ErrDuplicateReaction))
	assert.Equal(t, CodeDuplicateFavorite, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, "", CodeOf(nil))
}
