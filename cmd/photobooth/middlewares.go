package main

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/adampresley/photostrip/cmd/photobooth/internal/apiresponse"
)

const operatorTokenHeader = "X-Operator-Token"

/*
newOperatorTokenMiddleware guards gallery management routes. Requests
must carry the token in the X-Operator-Token header or the "token" query
value. An empty token turns the check off.
*/
func newOperatorTokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(operatorTokenHeader)

			if provided == "" {
				provided = r.URL.Query().Get("token")
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				slog.Warn("rejected request without a valid operator token", "method", r.Method, "path", r.URL.Path)
				apiresponse.WriteError(w, http.StatusUnauthorized, "Operator token required.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
