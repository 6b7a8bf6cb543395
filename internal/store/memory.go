package store

import (
	"context"
	"sync"
	"time"

	"example.com/blogposts/internal/models"
)

// MemoryStore keeps posts in a map. It backs STORE_DRIVER=memory and is the
// default store of the test suites.
type MemoryStore struct {
	mu     sync.RWMutex
	posts  map[string]models.Post
	events []models.PostEvent
}

// NewMemory initializes an empty in-memory store
func NewMemory() *MemoryStore {
	return &MemoryStore{posts: make(map[string]models.Post)}
}

func (m *MemoryStore) Close() {}

func (m *MemoryStore) ListPosts(_ context.Context) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		res = append(res, p)
	}
	return res, nil
}

func (m *MemoryStore) GetPost(_ context.Context, id string) (models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return models.Post{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) CreatePost(_ context.Context, post models.Post) (models.Post, error) {
	post = prepare(post, time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = post
	return post, nil
}

// InsertPosts adds every post under a single lock so readers never observe a
// partial batch.
func (m *MemoryStore) InsertPosts(_ context.Context, posts []models.Post) ([]models.Post, error) {
	prepared := prepareAll(posts)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range prepared {
		m.posts[p.ID] = p
	}
	return prepared, nil
}

func (m *MemoryStore) UpdatePost(_ context.Context, id string, upd models.PostUpdate) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return models.Post{}, ErrNotFound
	}
	p = upd.Apply(p)
	m.posts[id] = p
	return p, nil
}

func (m *MemoryStore) DeletePost(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.posts[id]
	delete(m.posts, id)
	return ok, nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, ev models.PostEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of the recorded audit trail.
func (m *MemoryStore) Events() []models.PostEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.PostEvent(nil), m.events...)
}

func (m *MemoryStore) DropAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = make(map[string]models.Post)
	m.events = nil
	return nil
}
