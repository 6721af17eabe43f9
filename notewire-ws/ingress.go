package notewirews

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// BroadcastResponse is the ingress reply for a completed broadcast.
type BroadcastResponse struct {
	Message string `json:"message"`
	Results Stats  `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// IngressHandler exposes the broadcaster as an HTTP endpoint for the domain
// service. Partial delivery is a 200; only malformed input (400) or a
// directory/config failure (500) is an error to the caller.
func IngressHandler(b *Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		logger := zerolog.Ctx(req.Context())

		var broadcastReq BroadcastRequest
		if err := json.NewDecoder(req.Body).Decode(&broadcastReq); err != nil {
			logger.Warn().Err(err).Msg("unparseable broadcast request")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be valid JSON"})
			return
		}

		stats, err := b.Broadcast(req.Context(), broadcastReq)
		if err != nil {
			var validationErr *ValidationError
			if errors.As(err, &validationErr) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
				return
			}
			logger.Error().Err(err).Msg("broadcast failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "broadcast failed"})
			return
		}

		writeJSON(w, http.StatusOK, BroadcastResponse{
			Message: "Broadcast completed",
			Results: stats,
		})
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
