package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"algoryth/internal/api/middleware"
	"algoryth/internal/common"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the body into dst and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, keys ...string) int {
	for _, k := range keys {
		if v := r.URL.Query().Get(k); v != "" {
			n, _ := strconv.Atoi(v)
			return n
		}
	}
	return 0
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return "", false
	}
	return userID, true
}

// optionalUser returns the user id when the request carried a valid token.
func optionalUser(r *http.Request) string {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	return userID
}

func passthrough(next http.Handler) http.Handler { return next }
