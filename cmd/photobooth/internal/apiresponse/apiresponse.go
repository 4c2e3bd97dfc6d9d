package apiresponse

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, value any) {
	b, err := json.Marshal(value)

	if err != nil {
		slog.Error("error marshaling response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

func WriteErrorKind(w http.ResponseWriter, status int, kind, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}
