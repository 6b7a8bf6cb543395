package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"example.com/blogposts/internal/logger"
	chimw "github.com/go-chi/chi/v5/middleware"
)

var logg = logger.New()

// AccessLog writes one line per request with its status and duration.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logg.Info("http", fmt.Sprintf("%s %s status=%d bytes=%d duration=%s request_id=%s",
			r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start), chimw.GetReqID(r.Context())))
	})
}

// Recover turns a handler panic into a JSON 500 instead of a dropped
// connection.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil || rec == http.ErrAbortHandler {
				if rec != nil {
					panic(rec)
				}
				return
			}
			logg.Error("http", "Recovered from panic in "+r.Method+" "+r.URL.Path,
				fmt.Errorf("%v\n%s", rec, debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "internal error"})
		}()
		next.ServeHTTP(w, r)
	})
}
