package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	config "example.com/blogposts/internal/init"
	"example.com/blogposts/internal/logger"
	"example.com/blogposts/internal/models"
	"github.com/google/uuid"
)

var logg = logger.New()

// ErrNotFound is returned when no post has the requested id.
var ErrNotFound = errors.New("post not found")

// Error wraps a failure of the underlying database so callers can tell
// operational problems apart from missing records.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opErr(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// --- Interfaces ---

type StoreInterface interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	CreatePost(ctx context.Context, post models.Post) (models.Post, error)
	InsertPosts(ctx context.Context, posts []models.Post) ([]models.Post, error)
	UpdatePost(ctx context.Context, id string, upd models.PostUpdate) (models.Post, error)
	DeletePost(ctx context.Context, id string) (bool, error)
	AppendEvent(ctx context.Context, ev models.PostEvent) error
	DropAll(ctx context.Context) error
	Close()
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (StoreInterface, error) {
	var (
		st  StoreInterface
		err error
	)
	switch cfg.Driver {
	case "cassandra", "":
		st, err = asStore(NewCassandra(cfg))
	case "mongo":
		st, err = asStore(NewMongo(ctx, cfg))
	case "postgres":
		st, err = asStore(NewPostgres(ctx, cfg))
	case "memory":
		logg.Info("store", "Using in-memory store")
		st = NewMemory()
	default:
		err = fmt.Errorf("unknown store driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// asStore drops the typed nil a failed constructor returns.
func asStore[S StoreInterface](st S, err error) (StoreInterface, error) {
	if err != nil {
		return nil, err
	}
	return st, nil
}

// prepare assigns the store-owned fields of a post that is about to be
// inserted.
func prepare(p models.Post, now time.Time) models.Post {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Created.IsZero() {
		p.Created = now
	}
	p.Created = models.NormalizeTime(p.Created)
	return p
}

func prepareAll(posts []models.Post) []models.Post {
	now := time.Now()
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		out[i] = prepare(p, now)
	}
	return out
}
