package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"example.com/blogposts/internal/models"
	"github.com/gocql/gocql"
)

const cqlPostColumns = `post_id, author_first_name, author_last_name, title, content, created_at`

// --- Post operations ---

func (s *CassandraStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	iter := s.Session.Query(`SELECT ` + cqlPostColumns + ` FROM posts`).WithContext(ctx).Iter()

	var res []models.Post
	var p models.Post
	for iter.Scan(&p.ID, &p.Author.FirstName, &p.Author.LastName, &p.Title, &p.Content, &p.Created) {
		p.Created = p.Created.UTC()
		res = append(res, p)
	}

	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to list posts", err)
		return nil, opErr("list posts", err)
	}
	return res, nil
}

func (s *CassandraStore) GetPost(ctx context.Context, id string) (models.Post, error) {
	var p models.Post
	err := s.Session.Query(
		`SELECT `+cqlPostColumns+` FROM posts WHERE post_id = ?`, id,
	).WithContext(ctx).Scan(&p.ID, &p.Author.FirstName, &p.Author.LastName, &p.Title, &p.Content, &p.Created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return models.Post{}, ErrNotFound
		}
		logg.Error("store", "Failed to query post by id", err)
		return models.Post{}, opErr("get post", err)
	}
	p.Created = p.Created.UTC()
	return p, nil
}

const cqlInsertPost = `INSERT INTO posts (` + cqlPostColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

func cqlPostArgs(p models.Post) []interface{} {
	return []interface{}{p.ID, p.Author.FirstName, p.Author.LastName, p.Title, p.Content, p.Created}
}

func (s *CassandraStore) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	post = prepare(post, time.Now())
	if err := s.Session.Query(cqlInsertPost, cqlPostArgs(post)...).WithContext(ctx).Exec(); err != nil {
		logg.Error("store", "Failed to add post", err)
		return models.Post{}, opErr("create post", err)
	}

	logg.Info("store", "Post added to posts table (post content anonymized)")
	return post, nil
}

// InsertPosts writes all posts in one logged batch, so either every post is
// stored or none is.
func (s *CassandraStore) InsertPosts(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	prepared := prepareAll(posts)
	if len(prepared) == 0 {
		return prepared, nil
	}

	batch := s.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, p := range prepared {
		batch.Query(cqlInsertPost, cqlPostArgs(p)...)
	}

	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to insert post batch", err)
		return nil, opErr("insert posts", err)
	}
	return prepared, nil
}

// cqlAssignments turns the supplied fields of an update into SET clauses.
func cqlAssignments(upd models.PostUpdate) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	if upd.Author != nil {
		sets = append(sets, "author_first_name = ?", "author_last_name = ?")
		args = append(args, upd.Author.FirstName, upd.Author.LastName)
	}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *upd.Content)
	}
	return sets, args
}

// UpdatePost applies the update as a lightweight transaction; IF EXISTS makes
// the existence check and the write a single atomic step.
func (s *CassandraStore) UpdatePost(ctx context.Context, id string, upd models.PostUpdate) (models.Post, error) {
	sets, args := cqlAssignments(upd)
	if len(sets) == 0 {
		return s.GetPost(ctx, id)
	}

	stmt := `UPDATE posts SET ` + strings.Join(sets, ", ") + ` WHERE post_id = ? IF EXISTS`
	applied, err := s.Session.Query(stmt, append(args, id)...).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		logg.Error("store", "Failed to update post", err)
		return models.Post{}, opErr("update post", err)
	}
	if !applied {
		return models.Post{}, ErrNotFound
	}
	return s.GetPost(ctx, id)
}

func (s *CassandraStore) DeletePost(ctx context.Context, id string) (bool, error) {
	applied, err := s.Session.Query(
		`DELETE FROM posts WHERE post_id = ? IF EXISTS`, id,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		logg.Error("store", "Failed to delete post", err)
		return false, opErr("delete post", err)
	}
	return applied, nil
}

func (s *CassandraStore) AppendEvent(ctx context.Context, ev models.PostEvent) error {
	var payload string
	if ev.Post != nil {
		data, err := json.Marshal(ev.Post)
		if err != nil {
			return opErr("append event", err)
		}
		payload = string(data)
	}

	if err := s.Session.Query(`
		INSERT INTO post_events (post_id, event_id, type, at, payload)
		VALUES (?, ?, ?, ?, ?)`,
		ev.PostID, gocql.UUIDFromTime(ev.At), string(ev.Type), ev.At, payload,
	).WithContext(ctx).Exec(); err != nil {
		logg.Error("store", "Failed to append post event", err)
		return opErr("append event", err)
	}
	return nil
}

func (s *CassandraStore) DropAll(ctx context.Context) error {
	for _, table := range []string{"posts", "post_events"} {
		if err := s.Session.Query(`TRUNCATE ` + table).WithContext(ctx).Exec(); err != nil {
			logg.Error("store", "Failed to truncate "+table, err)
			return opErr("drop all", err)
		}
	}
	return nil
}
