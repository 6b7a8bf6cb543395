package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	config "example.com/blogposts/internal/init"
	"example.com/blogposts/internal/models"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps each post as a JSONB document next to its id and
// creation time.
type PostgresStore struct {
	DB *sqlx.DB
}

// postgresDoc is the JSONB body of a post row.
type postgresDoc struct {
	Author  models.Author `json:"author"`
	Title   string        `json:"title"`
	Content string        `json:"content"`
}

type postgresRow struct {
	ID      string    `db:"id"`
	Doc     []byte    `db:"doc"`
	Created time.Time `db:"created"`
}

func (r postgresRow) post() (models.Post, error) {
	var d postgresDoc
	if err := json.Unmarshal(r.Doc, &d); err != nil {
		return models.Post{}, err
	}
	return models.Post{
		ID:      r.ID,
		Author:  d.Author,
		Title:   d.Title,
		Content: d.Content,
		Created: r.Created.UTC(),
	}, nil
}

func toPostgresRow(p models.Post) (postgresRow, error) {
	doc, err := json.Marshal(postgresDoc{Author: p.Author, Title: p.Title, Content: p.Content})
	if err != nil {
		return postgresRow{}, err
	}
	return postgresRow{ID: p.ID, Doc: doc, Created: p.Created}, nil
}

// NewPostgres applies the schema and opens a pooled connection to cfg.URL.
func NewPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("postgres store requires a connection string")
	}

	if err := runMigrations("migrations/postgres", postgresMigrateURL(cfg.URL)); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pgCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pgCfg.ConnectTimeout = 5 * time.Second

	db := sqlx.NewDb(stdlib.OpenDB(*pgCfg), "pgx")
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	logg.Info("store", "Connected to Postgres (host anonymized)")
	return &PostgresStore{DB: db}, nil
}

// postgresMigrateURL rewrites a postgres:// DSN for the pgx/v5 migrate driver.
func postgresMigrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func (s *PostgresStore) Close() {
	if s.DB == nil {
		return
	}
	if err := s.DB.Close(); err != nil {
		logg.Error("store", "Failed to close Postgres pool", err)
		return
	}
	logg.Info("store", "Postgres pool closed")
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	var rows []postgresRow
	if err := s.DB.SelectContext(ctx, &rows, `SELECT id, doc, created FROM posts`); err != nil {
		logg.Error("store", "Failed to list posts", err)
		return nil, opErr("list posts", err)
	}

	res := make([]models.Post, 0, len(rows))
	for _, r := range rows {
		p, err := r.post()
		if err != nil {
			return nil, opErr("list posts", err)
		}
		res = append(res, p)
	}
	return res, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (models.Post, error) {
	var row postgresRow
	if err := s.DB.GetContext(ctx, &row, `SELECT id, doc, created FROM posts WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		logg.Error("store", "Failed to query post by id", err)
		return models.Post{}, opErr("get post", err)
	}

	p, err := row.post()
	if err != nil {
		return models.Post{}, opErr("get post", err)
	}
	return p, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	post = prepare(post, time.Now())
	row, err := toPostgresRow(post)
	if err != nil {
		return models.Post{}, opErr("create post", err)
	}

	if _, err := s.DB.NamedExecContext(ctx,
		`INSERT INTO posts (id, doc, created) VALUES (:id, :doc, :created)`, row,
	); err != nil {
		logg.Error("store", "Failed to add post", err)
		return models.Post{}, opErr("create post", err)
	}
	return post, nil
}

// InsertPosts stores the batch with a single multi-row INSERT.
func (s *PostgresStore) InsertPosts(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	prepared := prepareAll(posts)
	if len(prepared) == 0 {
		return prepared, nil
	}

	rows := make([]postgresRow, len(prepared))
	for i, p := range prepared {
		r, err := toPostgresRow(p)
		if err != nil {
			return nil, opErr("insert posts", err)
		}
		rows[i] = r
	}

	if _, err := s.DB.NamedExecContext(ctx,
		`INSERT INTO posts (id, doc, created) VALUES (:id, :doc, :created)`, rows,
	); err != nil {
		logg.Error("store", "Failed to insert post batch", err)
		return nil, opErr("insert posts", err)
	}
	return prepared, nil
}

// postgresPatch is the JSONB object merged into doc by UpdatePost.
func postgresPatch(upd models.PostUpdate) map[string]any {
	patch := map[string]any{}
	if upd.Author != nil {
		patch["author"] = *upd.Author
	}
	if upd.Title != nil {
		patch["title"] = *upd.Title
	}
	if upd.Content != nil {
		patch["content"] = *upd.Content
	}
	return patch
}

// UpdatePost merges the patch into the stored document in one statement.
func (s *PostgresStore) UpdatePost(ctx context.Context, id string, upd models.PostUpdate) (models.Post, error) {
	patch := postgresPatch(upd)
	if len(patch) == 0 {
		return s.GetPost(ctx, id)
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return models.Post{}, opErr("update post", err)
	}

	var row postgresRow
	err = s.DB.GetContext(ctx, &row,
		`UPDATE posts SET doc = doc || $2::jsonb WHERE id = $1 RETURNING id, doc, created`,
		id, string(data),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		logg.Error("store", "Failed to update post", err)
		return models.Post{}, opErr("update post", err)
	}

	p, err := row.post()
	if err != nil {
		return models.Post{}, opErr("update post", err)
	}
	return p, nil
}

func (s *PostgresStore) DeletePost(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		logg.Error("store", "Failed to delete post", err)
		return false, opErr("delete post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, opErr("delete post", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) AppendEvent(ctx context.Context, ev models.PostEvent) error {
	var payload []byte
	if ev.Post != nil {
		data, err := json.Marshal(ev.Post)
		if err != nil {
			return opErr("append event", err)
		}
		payload = data
	}

	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO post_events (post_id, type, at, payload) VALUES ($1, $2, $3, $4)`,
		ev.PostID, string(ev.Type), ev.At, payload,
	); err != nil {
		logg.Error("store", "Failed to append post event", err)
		return opErr("append event", err)
	}
	return nil
}

func (s *PostgresStore) DropAll(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `TRUNCATE posts, post_events`); err != nil {
		logg.Error("store", "Failed to truncate tables", err)
		return opErr("drop all", err)
	}
	return nil
}
