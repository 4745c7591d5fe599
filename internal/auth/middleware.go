package auth

import (
	"context"
	"net/http"
)

// contextKey is unexported so no other package can forge or shadow the
// principal stored in a request context: only code in this package can
// construct a key of this type.
type contextKey string

const userIDKey contextKey = "userID"

// sessionCookie is the name of the HttpOnly cookie carrying the JWT.
// HttpOnly keeps the token out of reach of page scripts, so an XSS bug
// cannot exfiltrate sessions.
const sessionCookie = "token"

// OptionalAuth extracts the principal from the session cookie when a valid
// token is present, and always lets the request through.
//
// Snippet and user routes all sit behind this middleware, including the
// write operations. That is deliberate: whether a write is allowed depends
// on who owns the target record, which only the service layer knows once it
// has loaded the snippet. The middleware's sole job is to answer "who is
// asking?" — anonymous is a valid answer — and the ownership decision
// happens downstream with full context. Handlers read the answer via
// UserIDFromContext.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := principalID(r, tokens); err == nil && userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests that carry no valid session with 401.
//
// Only routes that are meaningless without a session use this — currently
// just the "who am I" endpoint. Everything else goes through OptionalAuth
// and lets the ownership rules produce the 401/403.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := principalID(r, tokens)
			if err != nil || userID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated principal's user ID, or
// ("", false) when the request is anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// principalID reads the session cookie and validates its token.
// A missing cookie is not a fault, just an anonymous request.
func principalID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
