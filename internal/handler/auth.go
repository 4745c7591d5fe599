package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rashed/snippetbin/internal/apperror"
	"github.com/rashed/snippetbin/internal/auth"
	"github.com/rashed/snippetbin/internal/service"
)

// tokenLifetime mirrors the JWT expiry set by auth.TokenService.Generate, so
// the cookie and the token it carries expire together.
const tokenLifetime = 15 * time.Minute

// AuthHandler manages login, logout, and the current-session lookup.
//
// COOKIE-BASED TOKEN STORAGE:
// The JWT lives in an HttpOnly cookie rather than localStorage or a header.
// HttpOnly means JavaScript cannot read it, so an XSS bug can't exfiltrate
// the session. SameSite=Lax keeps it off cross-site POSTs.
type AuthHandler struct {
	authn  *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authn *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authn: authn, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and sets the session cookie.
//
// HTTP: POST /auth/login
// Body: {"username": "alice", "password": "..."}
//
// Success: 200 with the user's public profile; the JWT goes into the
// HttpOnly "token" cookie. Bad credentials: 401, with the same message
// whether the username or the password was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body must be valid JSON"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("username", "username and password are required"))
		return
	}

	result, err := h.authn.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(tokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable in production (requires HTTPS)
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"id":       result.User.ID,
		"username": result.User.Username,
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// POST, not GET: logout changes state, and GET would be open to CSRF and
// browser pre-fetching. The JWT stays technically valid until expiry, but
// without the cookie the browser can't send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /auth/me
// Auth: required (RequireAuth middleware sets the userID in context).
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but be safe.
		writeError(w, apperror.Unauthenticated("authentication required"))
		return
	}

	user, err := h.authn.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":       user.ID,
		"username": user.Username,
	})
}
