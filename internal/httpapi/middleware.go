package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// requestIDMiddleware echoes the caller's X-Request-ID or assigns a fresh
// one, so front-end reports can be matched to server log lines.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s from=%s req_id=%s dur=%s",
			r.Method, r.URL.Path, r.RemoteAddr, w.Header().Get("X-Request-ID"), time.Since(start))
	})
}
