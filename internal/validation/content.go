package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"sazon/internal/models"
)

const (
	MaxPostTitleLength   = 255
	MaxPostBodyLength    = 50000
	MaxCommentBodyLength = 10000
	MaxMediaURLLength    = 500
)

func maxRunes(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return models.NewValidationError(fmt.Sprintf("%s must not exceed %d characters", field, limit))
	}
	return nil
}

func ValidatePostTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("title is required")
	}
	return maxRunes("title", title, MaxPostTitleLength)
}

// ValidatePostBody allows an empty body; drafts often start with a title only.
func ValidatePostBody(body string) error {
	return maxRunes("body", body, MaxPostBodyLength)
}

func ValidateCommentBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return models.NewValidationError("comment cannot be empty")
	}
	return maxRunes("comment", body, MaxCommentBodyLength)
}

// ValidateMediaURL requires an absolute http(s) URL.
func ValidateMediaURL(raw string) error {
	if err := maxRunes("url", raw, MaxMediaURLLength); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return models.NewValidationError("url must be an absolute http or https address")
	}
	return nil
}

func ValidateReactionKind(kind models.ReactionKind) error {
	if !kind.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown reaction kind %q", kind))
	}
	return nil
}

func ValidateMediaKind(kind models.MediaKind) error {
	if !kind.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown media kind %q", kind))
	}
	return nil
}
