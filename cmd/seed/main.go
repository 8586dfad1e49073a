// Command seed fills the configured database with demo data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"sazon/internal/bootstrap"
	"sazon/internal/config"
	"sazon/internal/seed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	postsPerUser := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Top-level comments per post")
	replies := flag.Int("replies", defaults.RepliesPerComment, "Replies per comment")
	fakerSeed := flag.Int64("seed", 0, "Faker seed, 0 for random")
	scenario := flag.String("scenario", "", "Apply a YAML scenario file instead of generating data")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ServiceName: "sazon-seed"})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	var sum *seed.Summary
	if *scenario != "" {
		log.Printf("applying scenario %s", *scenario)
		s, err := seed.LoadScenario(*scenario)
		if err != nil {
			return err
		}
		sum, err = seed.Apply(ctx, rt.Engine, rt.Hasher, s)
		if err != nil {
			return fmt.Errorf("scenario failed after %s: %w", sum, err)
		}
	} else {
		opts := seed.Options{
			Users:             *numUsers,
			PostsPerUser:      *postsPerUser,
			CommentsPerPost:   *comments,
			RepliesPerComment: *replies,
			Seed:              *fakerSeed,
		}
		log.Printf("target: %d users, %d posts each", opts.Users, opts.PostsPerUser)
		f, err := seed.NewFactory(rt.Engine, rt.Hasher, opts.Seed)
		if err != nil {
			return err
		}
		sum, err = seed.Generate(ctx, f, opts)
		if err != nil {
			return fmt.Errorf("seeding failed after %s: %w", sum, err)
		}
	}

	log.Printf("seeding complete: %s", sum)
	return nil
}
