package harness

import (
	"context"
	"strings"
	"testing"
	"time"

	"example.com/blogposts/internal/store"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePost(t *testing.T) {
	f := gofakeit.New(42)
	now := time.Now()

	for i := 0; i < 50; i++ {
		p := GeneratePost(f)
		assert.NotEmpty(t, p.Author.FirstName)
		assert.NotEmpty(t, p.Author.LastName)
		assert.NotEmpty(t, p.Title)
		assert.GreaterOrEqual(t, len(strings.Fields(p.Content)), 2)
		assert.Empty(t, p.ID)
		assert.False(t, p.Created.After(time.Now()), "created must be in the past")
		assert.True(t, p.Created.After(now.AddDate(-1, 0, -1)))
	}
}

func TestGenerateNewPost_IsValid(t *testing.T) {
	n := GenerateNewPost(gofakeit.New(7))
	assert.NoError(t, n.Validate())
}

func TestSeedAndTeardown(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	seeded, err := Seed(ctx, st, gofakeit.New(1), SeedCount)
	require.NoError(t, err)
	require.Len(t, seeded, SeedCount)

	list, err := st.ListPosts(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, seeded, list)

	require.NoError(t, Teardown(ctx, st))
	list, err = st.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSeed_PropagatesStoreErrors(t *testing.T) {
	_, err := Seed(context.Background(), &store.MockStoreFail{}, gofakeit.New(1), 3)
	assert.Error(t, err)

	assert.Error(t, Teardown(context.Background(), &store.MockStoreFail{}))
}
