package seed

import (
	"context"
	"fmt"
	"os"

	"sazon/internal/credential"
	"sazon/internal/integrity"
	"sazon/internal/models"
	"sazon/internal/validation"

	"gopkg.in/yaml.v3"
)

// Scenario is a hand-written data set. Entities refer to each other by the
// handle of a user or the ref of a post or comment.
type Scenario struct {
	Users     []ScenarioUser     `yaml:"users"`
	Posts     []ScenarioPost     `yaml:"posts"`
	Comments  []ScenarioComment  `yaml:"comments"`
	Reactions []ScenarioReaction `yaml:"reactions"`
	Favorites []ScenarioFavorite `yaml:"favorites"`
}

type ScenarioUser struct {
	Handle    string `yaml:"handle"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type ScenarioPost struct {
	Ref     string          `yaml:"ref"`
	Author  string          `yaml:"author"`
	Title   string          `yaml:"title"`
	Body    string          `yaml:"body"`
	Publish bool            `yaml:"publish"`
	Media   []ScenarioMedia `yaml:"media"`
}

type ScenarioMedia struct {
	URL  string `yaml:"url"`
	Kind string `yaml:"kind"`
}

// ScenarioComment sets exactly one of Post and ReplyTo.
type ScenarioComment struct {
	Ref     string `yaml:"ref"`
	Author  string `yaml:"author"`
	Body    string `yaml:"body"`
	Post    string `yaml:"post"`
	ReplyTo string `yaml:"reply_to"`
}

type ScenarioReaction struct {
	User    string `yaml:"user"`
	Kind    string `yaml:"kind"`
	Post    string `yaml:"post"`
	Comment string `yaml:"comment"`
}

type ScenarioFavorite struct {
	User string `yaml:"user"`
	Post string `yaml:"post"`
}

func ParseScenario(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

func LoadScenario(path string) (*Scenario, error) {
	// #nosec G304: path is an operator-supplied CLI flag
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

type scenarioRefs struct {
	users    map[string]string
	posts    map[string]string
	comments map[string]string
}

func (r *scenarioRefs) user(handle string) (string, error) {
	id, ok := r.users[handle]
	if !ok {
		return "", fmt.Errorf("unknown user %q", handle)
	}
	return id, nil
}

func (r *scenarioRefs) post(ref string) (string, error) {
	id, ok := r.posts[ref]
	if !ok {
		return "", fmt.Errorf("unknown post %q", ref)
	}
	return id, nil
}

// target maps a post/comment ref pair onto the raw association payload so the
// usual exclusive-or rule applies to scenario files too.
func (r *scenarioRefs) target(postRef, commentRef string) (models.Target, error) {
	var ref models.TargetRef
	if postRef != "" {
		id, err := r.post(postRef)
		if err != nil {
			return models.Target{}, err
		}
		ref.PostID = &id
	}
	if commentRef != "" {
		id, ok := r.comments[commentRef]
		if !ok {
			return models.Target{}, fmt.Errorf("unknown comment %q", commentRef)
		}
		ref.CommentID = &id
	}
	return validation.ResolveTarget(ref)
}

// Apply creates everything in s in file order: users, posts, comments,
// reactions, favorites. Comments may only reply to comments listed earlier.
func Apply(ctx context.Context, engine *integrity.Engine, hasher credential.Hasher, s *Scenario) (*Summary, error) {
	var sum Summary
	refs := &scenarioRefs{
		users:    make(map[string]string),
		posts:    make(map[string]string),
		comments: make(map[string]string),
	}

	for _, su := range s.Users {
		password := su.Password
		if password == "" {
			password = DefaultPassword
		}
		if err := validation.ValidatePassword(password); err != nil {
			return &sum, fmt.Errorf("user %q: %w", su.Handle, err)
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return &sum, fmt.Errorf("user %q: %w", su.Handle, err)
		}
		email := su.Email
		if email == "" {
			email = su.Handle + "@example.com"
		}
		u, err := engine.CreateUser(ctx, integrity.CreateUserInput{
			Email:          email,
			Handle:         su.Handle,
			CredentialHash: hash,
			FirstName:      su.FirstName,
			LastName:       su.LastName,
		})
		if err != nil {
			return &sum, fmt.Errorf("user %q: %w", su.Handle, err)
		}
		refs.users[su.Handle] = u.ID
		sum.Users++
	}

	for _, sp := range s.Posts {
		authorID, err := refs.user(sp.Author)
		if err != nil {
			return &sum, fmt.Errorf("post %q: %w", sp.Ref, err)
		}
		p, err := engine.CreatePost(ctx, authorID, integrity.CreatePostInput{Title: sp.Title, Body: sp.Body, Publish: sp.Publish})
		if err != nil {
			return &sum, fmt.Errorf("post %q: %w", sp.Ref, err)
		}
		refs.posts[sp.Ref] = p.ID
		sum.Posts++

		for _, sm := range sp.Media {
			if _, err := engine.AttachMedia(ctx, p.ID, sm.URL, models.MediaKind(sm.Kind)); err != nil {
				return &sum, fmt.Errorf("post %q media: %w", sp.Ref, err)
			}
			sum.Media++
		}
	}

	for _, sc := range s.Comments {
		authorID, err := refs.user(sc.Author)
		if err != nil {
			return &sum, fmt.Errorf("comment %q: %w", sc.Ref, err)
		}
		target, err := refs.target(sc.Post, sc.ReplyTo)
		if err != nil {
			return &sum, fmt.Errorf("comment %q: %w", sc.Ref, err)
		}
		c, err := engine.CreateComment(ctx, authorID, sc.Body, target)
		if err != nil {
			return &sum, fmt.Errorf("comment %q: %w", sc.Ref, err)
		}
		if sc.Ref != "" {
			refs.comments[sc.Ref] = c.ID
		}
		sum.Comments++
	}

	for _, sr := range s.Reactions {
		userID, err := refs.user(sr.User)
		if err != nil {
			return &sum, fmt.Errorf("reaction: %w", err)
		}
		target, err := refs.target(sr.Post, sr.Comment)
		if err != nil {
			return &sum, fmt.Errorf("reaction by %q: %w", sr.User, err)
		}
		kind := models.ReactionKind(sr.Kind)
		if kind == "" {
			kind = models.ReactionLike
		}
		if _, err := engine.CreateReaction(ctx, userID, kind, target); err != nil {
			return &sum, fmt.Errorf("reaction by %q: %w", sr.User, err)
		}
		sum.Reactions++
	}

	for _, sf := range s.Favorites {
		userID, err := refs.user(sf.User)
		if err != nil {
			return &sum, fmt.Errorf("favorite: %w", err)
		}
		postID, err := refs.post(sf.Post)
		if err != nil {
			return &sum, fmt.Errorf("favorite by %q: %w", sf.User, err)
		}
		if _, err := engine.CreateFavorite(ctx, userID, postID); err != nil {
			return &sum, fmt.Errorf("favorite by %q: %w", sf.User, err)
		}
		sum.Favorites++
	}

	return &sum, nil
}
