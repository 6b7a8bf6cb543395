package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"example.com/blogposts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mongoPostDoc(id, title string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "author", Value: bson.D{{Key: "firstName", Value: "Ada"}, {Key: "lastName", Value: "Lovelace"}}},
		{Key: "title", Value: title},
		{Key: "content", Value: "C"},
		{Key: "created", Value: created},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	ns := "blog.posts"

	mt.Run("get post decodes the document", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, mongoPostDoc(testPostID, "T", created)))

		p, err := st.GetPost(ctx, testPostID)
		require.NoError(mt, err)
		assert.Equal(mt, "Ada Lovelace", p.View().Author)
		assert.Equal(mt, "T", p.Title)
		assert.True(mt, created.Equal(p.Created))
	})

	mt.Run("get post reports missing documents", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := st.GetPost(ctx, testPostID)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list posts returns every document", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			mongoPostDoc("a", "one", created),
			mongoPostDoc("b", "two", created),
		))

		posts, err := st.ListPosts(ctx)
		require.NoError(mt, err)
		require.Len(mt, posts, 2)
		assert.Equal(mt, "two", posts[1].Title)
	})

	mt.Run("create post assigns an id", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p, err := st.CreatePost(ctx, samplePost("a"))
		require.NoError(mt, err)
		assert.NotEmpty(mt, p.ID)
		assert.False(mt, p.Created.IsZero())
	})

	mt.Run("insert posts surfaces write errors as store errors", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := st.InsertPosts(ctx, []models.Post{samplePost("a"), samplePost("b")})
		var serr *Error
		require.True(mt, errors.As(err, &serr))
		assert.Equal(mt, "insert posts", serr.Op)
	})

	mt.Run("update post returns the new document", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: mongoPostDoc(testPostID, "updated title", created),
		}))

		p, err := st.UpdatePost(ctx, testPostID, models.PostUpdate{Title: strptr("updated title")})
		require.NoError(mt, err)
		assert.Equal(mt, "updated title", p.Title)
		assert.Equal(mt, "C", p.Content)
	})

	mt.Run("update post on a missing id", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := st.UpdatePost(ctx, testPostID, models.PostUpdate{Title: strptr("x")})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete post reports whether a document went away", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		deleted, err := st.DeletePost(ctx, testPostID)
		require.NoError(mt, err)
		assert.True(mt, deleted)

		deleted, err = st.DeletePost(ctx, testPostID)
		require.NoError(mt, err)
		assert.False(mt, deleted)
	})

	mt.Run("drop all drops the database", func(mt *mtest.T) {
		st := newMongoStore(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, st.DropAll(ctx))
	})
}

func TestMongoSet_OnlySuppliedFields(t *testing.T) {
	set := mongoSet(models.PostUpdate{Title: strptr("t")})
	assert.Equal(t, bson.D{{Key: "title", Value: "t"}}, set)
	assert.Empty(t, mongoSet(models.PostUpdate{}))
}
