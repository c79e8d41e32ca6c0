package middleware

import (
	"context"
	"errors"
	"net/http"

	"algoryth/internal/common"
	"algoryth/internal/common/security"
	"algoryth/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// identity reads the user from a token already verified by jwtauth.Verifier.
func identity(r *http.Request) (userID, role string, err error) {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", "", err
	}
	if token == nil {
		return "", "", jwtauth.ErrNoTokenFound
	}
	userID, err = security.GetUserIDFromClaims(claims)
	if err != nil {
		return "", "", err
	}
	role, err = security.GetUserRoleFromClaims(claims)
	if err != nil {
		return "", "", err
	}
	return userID, role, nil
}

func withIdentity(r *http.Request, userID, role string) *http.Request {
	ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
	ctx = context.WithValue(ctx, UserRoleCtxKey, role)
	return r.WithContext(ctx)
}

func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := identity(r)
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			}
			return
		}
		next.ServeHTTP(w, withIdentity(r, userID, role))
	})
}

// OptionalAuth attaches the user when a valid token is present and lets everyone else through.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := identity(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withIdentity(r, userID, role))
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

// Helper to get user role from context
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}
