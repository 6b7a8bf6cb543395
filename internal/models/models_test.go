package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestPostView_FlattensAuthor(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Post{
		ID:      "7f1f0a1e-6c4b-4a43-9c89-0b6d1f0d2a11",
		Author:  Author{FirstName: "Ada", LastName: "Lovelace"},
		Title:   "T",
		Content: "C",
		Created: created,
	}

	data, err := json.Marshal(p.View())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Ada Lovelace", got["author"])
	assert.Equal(t, "2024-03-01T12:00:00Z", got["created"])
	assert.ElementsMatch(t, []string{"id", "author", "title", "content", "created"}, keys(got))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestNewPost_Validate(t *testing.T) {
	ok := NewPost{
		Author:  &Author{FirstName: "Ada", LastName: "Lovelace"},
		Title:   strptr("T"),
		Content: strptr(""),
	}
	assert.NoError(t, ok.Validate())

	err := NewPost{Author: &Author{FirstName: "Ada"}, Title: strptr("  ")}.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"author.lastName is required",
		"title is required",
		"content is required",
	}, verr.Fields())

	err = NewPost{}.Validate()
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields(), "author is required")
}

func TestNewPost_PostKeepsExplicitCreated(t *testing.T) {
	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	p := NewPost{
		Author:  &Author{FirstName: "Ada", LastName: "Lovelace"},
		Title:   strptr("T"),
		Content: strptr("C"),
		Created: &created,
	}.Post()

	assert.Empty(t, p.ID)
	assert.Equal(t, created, p.Created)
	assert.Equal(t, "Ada", p.Author.FirstName)
}

func TestPostUpdate_Validate(t *testing.T) {
	id := "7f1f0a1e-6c4b-4a43-9c89-0b6d1f0d2a11"

	assert.NoError(t, PostUpdate{Title: strptr("updated title")}.Validate(id))
	assert.NoError(t, PostUpdate{ID: strptr(id)}.Validate(id))

	assert.Error(t, PostUpdate{ID: strptr("other")}.Validate(id))
	assert.Error(t, PostUpdate{Title: strptr("")}.Validate(id))
	assert.Error(t, PostUpdate{Author: &Author{FirstName: "Ada"}}.Validate(id))
}

func TestPostUpdate_ApplyKeepsAbsentFields(t *testing.T) {
	orig := Post{
		ID:      "id",
		Author:  Author{FirstName: "Ada", LastName: "Lovelace"},
		Title:   "old",
		Content: "old content",
		Created: time.Date(2021, 5, 5, 0, 0, 0, 0, time.UTC),
	}
	upd := PostUpdate{Title: strptr("new")}

	got := upd.Apply(orig)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, orig.Content, got.Content)
	assert.Equal(t, orig.Author, got.Author)
	assert.Equal(t, orig.Created, got.Created)
	assert.False(t, upd.Empty())
	assert.True(t, PostUpdate{ID: strptr("id")}.Empty())
}

func TestNormalizeTime(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	in := time.Date(2022, 1, 1, 10, 0, 0, 123456789, loc)
	out := NormalizeTime(in)
	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, 123000000, out.Nanosecond())
	assert.True(t, in.Truncate(time.Millisecond).Equal(out))
}
