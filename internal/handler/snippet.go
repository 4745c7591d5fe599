package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rashed/snippetbin/internal/auth"
	"github.com/rashed/snippetbin/internal/serializer"
	"github.com/rashed/snippetbin/internal/service"
)

// SnippetHandler is the HTTP adapter for the snippet lifecycle. It extracts
// the principal and the payload, calls the service, and serializes the
// result — nothing more. Who may do what is the service's (and ultimately
// the policy's) decision; the handler passes the principal through even when
// it is empty, so 401 vs 403 is decided where the target is known.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// HandleList returns all snippets, oldest first.
//
// HTTP: GET /snippets
// Auth: none — reads are open, and the result is identical for anonymous
// and authenticated callers.
//
// Optional ?limit= and ?offset= query parameters page through the list;
// without them the full list is returned.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	snippets, err := h.snippets.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewSnippetList(snippets))
}

// HandleCreate saves a new snippet owned by the authenticated principal.
//
// HTTP: POST /snippets
// Auth: required — anonymous requests get 401.
// Body: {"title": "...", "code": "...", "language": "python",
//        "style": "friendly", "linenos": true}
// title, style, and linenos may be omitted (defaults apply).
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	fields, err := serializer.DecodeSnippetCreate(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	principal, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Create(r.Context(), principal, fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, serializer.NewSnippet(snippet))
}

// HandleGet returns a single snippet.
//
// HTTP: GET /snippets/{id}
// Auth: none.
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewSnippet(snippet))
}

// HandleUpdate replaces all mutable fields of a snippet.
//
// HTTP: PUT /snippets/{id}
// Auth: owner only. Every mutable field must be present in the body.
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	fields, err := serializer.DecodeSnippetInput(r.Body, false)
	if err != nil {
		writeError(w, err)
		return
	}

	principal, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Update(r.Context(), principal, chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewSnippet(snippet))
}

// HandlePartialUpdate changes a subset of a snippet's fields.
//
// HTTP: PATCH /snippets/{id}
// Auth: owner only. Fields absent from the body are left unchanged.
func (h *SnippetHandler) HandlePartialUpdate(w http.ResponseWriter, r *http.Request) {
	fields, err := serializer.DecodeSnippetInput(r.Body, true)
	if err != nil {
		writeError(w, err)
		return
	}

	principal, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.PartialUpdate(r.Context(), principal, chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewSnippet(snippet))
}

// HandleDestroy permanently deletes a snippet.
//
// HTTP: DELETE /snippets/{id}
// Auth: owner only.
func (h *SnippetHandler) HandleDestroy(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Destroy(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleHighlight returns the snippet's code as highlighted HTML.
//
// HTTP: GET /snippets/{id}/highlight
// Auth: none. Responds with text/html, not the JSON representation.
func (h *SnippetHandler) HandleHighlight(w http.ResponseWriter, r *http.Request) {
	markup, err := h.snippets.Highlight(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeHTML(w, http.StatusOK, markup)
}

// queryInt parses an integer query parameter, returning 0 when absent or
// malformed — the services treat 0 as "default".
func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
