package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"soundvault/core/auth"
	"soundvault/logger"
	"soundvault/model"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware extracts a token from the Authorization header or the
// auth cookie, verifies it, loads the user with the password hash
// stripped and attaches it to the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, h.cfg.CookieName)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		user, err := h.userRepo.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeServerError(w, "failed to load user for token", err)
			return
		}
		if user == nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		user.PasswordHash = ""
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireAdmin gates a handler on the authenticated identity's role.
// Must run inside AuthMiddleware.
func (h *APIHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := UserFromContext(r.Context())
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		if user.Role != model.RoleAdmin {
			logger.Warn("non-admin attempted admin operation",
				logger.Int64("userId", user.ID),
				logger.String("path", r.URL.Path))
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// UserFromContext extracts the authenticated user from the request
// context.
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

func extractToken(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// canModify reports whether the caller may mutate a resource owned by
// ownerID: owners and admins only.
func canModify(user *model.User, ownerID int64) bool {
	return user.ID == ownerID || user.Role == model.RoleAdmin
}
