package models

import (
	"strings"
	"time"
)

type Author struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
}

// DisplayName joins first and last name the way clients see it.
func (a Author) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Post is the stored document.
type Post struct {
	ID      string    `json:"id" bson:"_id"`
	Author  Author    `json:"author" bson:"author"`
	Title   string    `json:"title" bson:"title"`
	Content string    `json:"content" bson:"content"`
	Created time.Time `json:"created" bson:"created"`
}

// PostView is the JSON projection of a Post returned over HTTP.
type PostView struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

func (p Post) View() PostView {
	return PostView{
		ID:      p.ID,
		Author:  p.Author.DisplayName(),
		Title:   p.Title,
		Content: p.Content,
		Created: p.Created,
	}
}

// NormalizeTime truncates t to the millisecond precision shared by every
// backend and converts it to UTC.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

type EventType string

const (
	PostCreated EventType = "post_created"
	PostUpdated EventType = "post_updated"
	PostDeleted EventType = "post_deleted"
)

// PostEvent is published after every successful write.
type PostEvent struct {
	Type   EventType `json:"type" bson:"type"`
	PostID string    `json:"post_id" bson:"post_id"`
	Post   *Post     `json:"post,omitempty" bson:"post,omitempty"`
	At     time.Time `json:"at" bson:"at"`
}

func NewPostEvent(t EventType, id string, post *Post) PostEvent {
	return PostEvent{Type: t, PostID: id, Post: post, At: NormalizeTime(time.Now())}
}
