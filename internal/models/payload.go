package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// NewPost is the body accepted by POST /posts.
type NewPost struct {
	Author  *Author    `json:"author"`
	Title   *string    `json:"title"`
	Content *string    `json:"content"`
	Created *time.Time `json:"created,omitempty"`
}

// PostUpdate is the body accepted by PUT /posts/{id}. Nil fields are left
// untouched by the store.
type PostUpdate struct {
	ID      *string `json:"id,omitempty"`
	Author  *Author `json:"author,omitempty"`
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ValidationError lists every rule a payload broke.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.errs
}

// Fields returns the individual messages.
func (e *ValidationError) Fields() []string {
	msgs := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

func validation(errs *multierror.Error) error {
	if errs.ErrorOrNil() == nil {
		return nil
	}
	return &ValidationError{errs: errs}
}

func missing(field string) error {
	return fmt.Errorf("%s is required", field)
}

func checkAuthor(errs *multierror.Error, a *Author) *multierror.Error {
	if strings.TrimSpace(a.FirstName) == "" {
		errs = multierror.Append(errs, missing("author.firstName"))
	}
	if strings.TrimSpace(a.LastName) == "" {
		errs = multierror.Append(errs, missing("author.lastName"))
	}
	return errs
}

func (n NewPost) Validate() error {
	errs := &multierror.Error{}
	if n.Author == nil {
		errs = multierror.Append(errs, missing("author"))
	} else {
		errs = checkAuthor(errs, n.Author)
	}
	if n.Title == nil || strings.TrimSpace(*n.Title) == "" {
		errs = multierror.Append(errs, missing("title"))
	}
	if n.Content == nil {
		errs = multierror.Append(errs, missing("content"))
	}
	return validation(errs)
}

// Post converts a validated payload into a document without an id.
func (n NewPost) Post() Post {
	p := Post{
		Author:  *n.Author,
		Title:   *n.Title,
		Content: *n.Content,
	}
	if n.Created != nil {
		p.Created = *n.Created
	}
	return p
}

// Validate checks the update against the id taken from the request path.
func (u PostUpdate) Validate(pathID string) error {
	errs := &multierror.Error{}
	if u.ID != nil && *u.ID != pathID {
		errs = multierror.Append(errs, fmt.Errorf("request path id (%s) and request body id (%s) must match", pathID, *u.ID))
	}
	if u.Author != nil {
		errs = checkAuthor(errs, u.Author)
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = multierror.Append(errs, fmt.Errorf("title must not be empty"))
	}
	return validation(errs)
}

// Empty reports whether the update changes nothing.
func (u PostUpdate) Empty() bool {
	return u.Author == nil && u.Title == nil && u.Content == nil
}

// Apply returns p with the supplied fields overwritten.
func (u PostUpdate) Apply(p Post) Post {
	if u.Author != nil {
		p.Author = *u.Author
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	return p
}
