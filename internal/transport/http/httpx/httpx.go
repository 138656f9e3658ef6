package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
)

// errorResponse is the JSON error body returned to clients.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}

// WriteError maps a domain error to an HTTP status and writes it. Unknown
// errors become 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	var status int
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindInvalidTransition, apperr.KindRiderInactive:
		status = http.StatusUnprocessableEntity
	default:
		WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal error",
			Kind:  kind.String(),
		})

		return
	}

	WriteJSON(w, status, errorResponse{
		Error: err.Error(),
		Kind:  kind.String(),
	})
}

// ActorFromRequest builds the acting identity from request headers. Requests
// without identity headers run as the system actor; real authentication sits
// in front of this service.
func ActorFromRequest(r *http.Request) actor.Actor {
	id := r.Header.Get("X-Actor-Id")
	role := r.Header.Get("X-Actor-Role")
	if id == "" && role == "" {
		return actor.System
	}

	act := actor.Actor{ID: id, Role: actor.Role(role)}
	if act.Role == "" {
		act.Role = actor.RoleCustomer
	}

	return act
}
