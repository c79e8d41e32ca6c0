package handler

import (
	"context"
	"net/http"
	"time"

	"algoryth/internal/common"
)

// Pinger checks one backing service.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	service string
	checks  map[string]Pinger
}

func NewHealthHandler(service string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{service: service, checks: checks}
}

// ServeHTTP answers 200 while every check passes and 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ok := true
	deps := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			ok = false
			deps[name] = "down"
			continue
		}
		deps[name] = "up"
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	common.RespondWithJSON(w, status, map[string]interface{}{
		"ok":           ok,
		"service":      h.service,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"dependencies": deps,
	})
}
