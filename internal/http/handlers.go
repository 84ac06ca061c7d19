package http

import (
	"context"
	"net/http"
	"time"

	"substack/internal/auth"
	applog "substack/internal/log"
)

const readyTimeout = 2 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := map[string]any{"store": "ok"}
	status, code := "ready", http.StatusOK

	if s.pinger == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.pinger.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		checks["store"] = "failed"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	checks["rate_limiter_clients"] = s.limiter.ActiveClients()

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func bearerToken(r *http.Request) (string, bool) {
	return auth.BearerToken(r.Header.Get("Authorization"))
}

func authContext(ctx context.Context, userID int64) context.Context {
	ctx = auth.WithUserID(ctx, userID)
	return applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, userID))
}
