package store

import (
	"context"
	"errors"

	"example.com/blogposts/internal/models"
)

// MockStoreFail always returns errors for negative tests
type MockStoreFail struct{}

func (m *MockStoreFail) Close() {}

func (m *MockStoreFail) ListPosts(context.Context) ([]models.Post, error) {
	return nil, opErr("list posts", errors.New("mock store list failed"))
}

func (m *MockStoreFail) GetPost(context.Context, string) (models.Post, error) {
	return models.Post{}, opErr("get post", errors.New("mock store get failed"))
}

func (m *MockStoreFail) CreatePost(context.Context, models.Post) (models.Post, error) {
	return models.Post{}, opErr("create post", errors.New("mock store create failed"))
}

func (m *MockStoreFail) InsertPosts(context.Context, []models.Post) ([]models.Post, error) {
	return nil, opErr("insert posts", errors.New("mock store insert failed"))
}

func (m *MockStoreFail) UpdatePost(context.Context, string, models.PostUpdate) (models.Post, error) {
	return models.Post{}, opErr("update post", errors.New("mock store update failed"))
}

func (m *MockStoreFail) DeletePost(context.Context, string) (bool, error) {
	return false, opErr("delete post", errors.New("mock store delete failed"))
}

func (m *MockStoreFail) AppendEvent(context.Context, models.PostEvent) error {
	return opErr("append event", errors.New("mock store append event failed"))
}

func (m *MockStoreFail) DropAll(context.Context) error {
	return opErr("drop all", errors.New("mock store drop failed"))
}
