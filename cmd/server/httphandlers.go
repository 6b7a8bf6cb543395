package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	appkafka "example.com/blogposts/internal/broker"
	"example.com/blogposts/internal/models"
	"example.com/blogposts/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type listResponse struct {
	Posts []models.PostView `json:"posts"`
}

type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// --- HTTP Handlers ---

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listPostsHandler returns every post, newest first.
// Returns JSON response: {"posts": [...]}
func (s *Server) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		s.storeFailure(w, "http/posts", "Failed to list posts", err)
		return
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Created.After(posts[j].Created)
	})

	resp := listResponse{Posts: make([]models.PostView, 0, len(posts))}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, p.View())
	}
	writeJSON(w, http.StatusOK, resp)
}

// createPostHandler validates the payload, stores the post and answers 201.
// Expects JSON body: {"author": {"firstName", "lastName"}, "title", "content"}
func (s *Server) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var body models.NewPost
	if err := decodeJSON(w, r, &body); err != nil {
		logg.Info("http/posts", "Invalid request body: "+err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := body.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	post, err := s.store.CreatePost(r.Context(), body.Post())
	if err != nil {
		s.storeFailure(w, "http/posts", "Failed to create post", err)
		return
	}

	logg.Info("http/posts", "Post created with id="+post.ID)
	s.publish(models.NewPostEvent(models.PostCreated, post.ID, &post))
	writeJSON(w, http.StatusCreated, post.View())
}

// updatePostHandler applies the supplied fields to the post and returns it.
// Expects JSON body with any of: {"id", "author", "title", "content"}
func (s *Server) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	var body models.PostUpdate
	if err := decodeJSON(w, r, &body); err != nil {
		logg.Info("http/posts", "Invalid request body: "+err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := body.Validate(id); err != nil {
		writeValidation(w, err)
		return
	}

	post, err := s.store.UpdatePost(r.Context(), id, body)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("post %s not found", id))
		return
	}
	if err != nil {
		s.storeFailure(w, "http/posts", "Failed to update post id="+id, err)
		return
	}

	if !body.Empty() {
		logg.Info("http/posts", "Post updated with id="+id)
		s.publish(models.NewPostEvent(models.PostUpdated, id, &post))
	}
	writeJSON(w, http.StatusOK, post.View())
}

// deletePostHandler removes the post. Deleting an unknown id still answers 204.
func (s *Server) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	deleted, err := s.store.DeletePost(r.Context(), id)
	if err != nil {
		s.storeFailure(w, "http/posts", "Failed to delete post id="+id, err)
		return
	}

	if deleted {
		logg.Info("http/posts", "Post deleted with id="+id)
		s.publish(models.NewPostEvent(models.PostDeleted, id, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// postID reads the {id} path parameter and rejects anything but a UUID.
func postID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed post id %q", raw))
		return "", false
	}
	return id.String(), true
}

// decodeJSON reads exactly one JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

// publish emits ev when events are enabled. The write already succeeded, so
// a broker failure is only logged.
func (s *Server) publish(ev models.PostEvent) {
	if s.kafkaWriter == nil {
		return
	}
	if err := appkafka.PublishEvent(s.kafkaWriter, ev); err != nil {
		logg.Error("http/posts", "Failed to publish "+string(ev.Type)+" for post id="+ev.PostID, err)
	}
}

func (s *Server) storeFailure(w http.ResponseWriter, module, msg string, err error) {
	logg.Error(module, msg, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeValidation(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: "validation failed",
			Errors:  verr.Fields(),
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logg.Error("http", "Failed to encode response", err)
	}
}
