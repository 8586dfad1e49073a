package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sazon/internal/models"
)

func strPtr(s string) *string { return &s }

func TestResolveTarget(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		ref      models.TargetRef
		want     models.Target
		wantRule string
	}{
		{"Post", models.TargetRef{PostID: strPtr("p1")}, models.PostTarget("p1"), ""},
		{"Comment", models.TargetRef{CommentID: strPtr("c1")}, models.CommentTarget("c1"), ""},
		{"Both", models.TargetRef{PostID: strPtr("p1"), CommentID: strPtr("c1")}, models.Target{}, "both targets specified"},
		{"Neither", models.TargetRef{}, models.Target{}, "no target specified"},
		{"Blank Post", models.TargetRef{PostID: strPtr("  ")}, models.Target{}, "no target specified"},
		{"Blank Post With Comment", models.TargetRef{PostID: strPtr(""), CommentID: strPtr("c1")}, models.CommentTarget("c1"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(tt.ref)
			if tt.wantRule != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrInvalidAssociation))
				assert.Contains(t, err.Error(), tt.wantRule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateTarget(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateTarget(models.PostTarget("p1")))
	assert.NoError(t, ValidateTarget(models.CommentTarget("c1")))
	assert.True(t, errors.Is(ValidateTarget(models.Target{}), models.ErrInvalidAssociation))
}

func TestValidateReply(t *testing.T) {
	t.Parallel()
	parent := &models.Comment{ID: "c1"}
	assert.NoError(t, ValidateReply(parent, "c2"))
	assert.NoError(t, ValidateReply(parent, ""))

	err := ValidateReply(parent, "c1")
	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidAssociation, models.CodeOf(err))
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12", false},
		{"Exactly Min Length", "Abcdefghi1", false},
		{"Too Short", "Small1a", true},
		{"Too Long", "A" + strings.Repeat("b", 71) + "1", true},
		{"No Upper", "securepass12", true},
		{"No Lower", "SECUREPASS12", true},
		{"No Digit", "SecurePassword", true},
		{"Unicode Characters", "ÅngstromPass12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHandle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		handle  string
		wantErr bool
	}{
		{"Valid", "chef_ana99", false},
		{"Too Short", "ab", true},
		{"Illegal Chars", "chef@ana", true},
		{"Starts Dash", "-chef", true},
		{"Ends Underscore", "chef_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHandle(tt.handle)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("ana@example.com"))
	assert.Error(t, ValidateEmail("ana@"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 95)+"@x.com"))
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}

func TestContentRules(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePostTitle("Tacos al pastor"))
	assert.Error(t, ValidatePostTitle("   "))
	assert.Error(t, ValidatePostTitle(strings.Repeat("x", MaxPostTitleLength+1)))
	assert.NoError(t, ValidatePostTitle(strings.Repeat("ñ", MaxPostTitleLength)))

	assert.NoError(t, ValidatePostBody(""))
	assert.Error(t, ValidatePostBody(strings.Repeat("x", MaxPostBodyLength+1)))

	assert.NoError(t, ValidateCommentBody("so good"))
	assert.Error(t, ValidateCommentBody(""))
	assert.Error(t, ValidateCommentBody(strings.Repeat("x", MaxCommentBodyLength+1)))

	assert.NoError(t, ValidateMediaURL("https://cdn.example.com/a.png"))
	assert.Error(t, ValidateMediaURL("/local/a.png"))
	assert.Error(t, ValidateMediaURL("ftp://cdn.example.com/a.png"))

	assert.NoError(t, ValidateReactionKind(models.ReactionDislike))
	assert.Error(t, ValidateReactionKind("meh"))
	assert.NoError(t, ValidateMediaKind(models.MediaVideo))
	assert.Error(t, ValidateMediaKind("audio"))
}
