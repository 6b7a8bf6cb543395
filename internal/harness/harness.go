// Package harness generates fake posts and brackets test cases with seed and
// teardown. The store handle is always passed in; the package holds no
// connection of its own.
package harness

import (
	"context"
	"fmt"
	"time"

	"example.com/blogposts/internal/logger"
	"example.com/blogposts/internal/models"
	"example.com/blogposts/internal/store"
	"github.com/brianvoe/gofakeit/v6"
)

// SeedCount is the number of posts seeded before each test case.
const SeedCount = 10

var logg = logger.New()

// GeneratePost returns a post with a random author, a one-word title,
// several words of content and a creation date within the past year.
func GeneratePost(f *gofakeit.Faker) models.Post {
	now := time.Now()
	return models.Post{
		Author: models.Author{
			FirstName: f.FirstName(),
			LastName:  f.LastName(),
		},
		Title:   f.Word(),
		Content: f.Sentence(f.Number(3, 12)),
		Created: f.DateRange(now.AddDate(-1, 0, 0), now),
	}
}

// GenerateNewPost returns a create payload built from a generated post.
func GenerateNewPost(f *gofakeit.Faker) models.NewPost {
	p := GeneratePost(f)
	return models.NewPost{
		Author:  &p.Author,
		Title:   &p.Title,
		Content: &p.Content,
		Created: &p.Created,
	}
}

// Seed inserts n generated posts as one batch and returns them with their
// store-assigned ids.
func Seed(ctx context.Context, st store.StoreInterface, f *gofakeit.Faker, n int) ([]models.Post, error) {
	logg.Info("harness", fmt.Sprintf("Seeding %d blog posts", n))

	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = GeneratePost(f)
	}

	seeded, err := st.InsertPosts(ctx, posts)
	if err != nil {
		return nil, fmt.Errorf("seed posts: %w", err)
	}
	return seeded, nil
}

// Teardown irreversibly wipes every post (and the event trail) from st.
func Teardown(ctx context.Context, st store.StoreInterface) error {
	logg.Warn("harness", "Deleting database")
	if err := st.DropAll(ctx); err != nil {
		return fmt.Errorf("teardown: %w", err)
	}
	return nil
}
