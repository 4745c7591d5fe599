package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rashed/snippetbin/internal/serializer"
	"github.com/rashed/snippetbin/internal/service"
)

// UserHandler is the HTTP adapter for the identity endpoints. User records
// are world-readable (minus the credential, which the serializer never
// emits) and registration is open.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList returns all registered users with links to their snippets.
//
// HTTP: GET /users
// Auth: none.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewUserList(users))
}

// HandleCreate registers a new user.
//
// HTTP: POST /users
// Body: {"username": "alice", "password": "..."}
// The password is consumed to set the stored bcrypt hash and never appears
// in any response. A duplicate username is a 400 with a field error, never a
// silent overwrite.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	fields, err := serializer.DecodeUserInput(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}

	// A brand-new user owns no snippets yet; serialize with an empty list
	// rather than re-querying the store.
	resource := serializer.NewUser(&service.UserWithSnippets{User: *user, SnippetIDs: nil})
	writeJSON(w, http.StatusCreated, resource)
}

// HandleGet returns a single user.
//
// HTTP: GET /users/{id}
// Auth: none.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewUser(user))
}
