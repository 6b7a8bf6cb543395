package server

import (
	"context"
	"net/http"
	"time"

	appkafka "example.com/blogposts/internal/broker"
	"example.com/blogposts/internal/logger"
	"example.com/blogposts/internal/middleware"
	"example.com/blogposts/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	store       store.StoreInterface
	kafkaWriter appkafka.KafkaWriter // nil when events are disabled
}

var logg = logger.New()

func New(st store.StoreInterface, writer appkafka.KafkaWriter) *Server {
	return &Server{
		store:       st,
		kafkaWriter: writer,
	}
}

// Router wires the posts resource and the health probe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Recover)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.healthHandler)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", s.listPostsHandler)
		r.Post("/", s.createPostHandler)
		r.Put("/{id}", s.updatePostHandler)
		r.Delete("/{id}", s.deletePostHandler)
	})
	return r
}

// Run starts the HTTP server and shuts it down gracefully once ctx is done.
func Run(ctx context.Context, st store.StoreInterface, writer appkafka.KafkaWriter, addr string) {
	s := New(st, writer)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second, // prevent slowloris attacks
		WriteTimeout: 10 * time.Second,
	}

	// --- Start server in a goroutine ---
	go func() {
		logg.Info("server", "Starting HTTP server on "+addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error("server", "Server stopped unexpectedly", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	logg.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
	} else {
		logg.Info("server", "Server stopped gracefully")
	}
}
