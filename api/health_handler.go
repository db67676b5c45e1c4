package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type HealthResponse struct {
	Status      string    `json:"status" example:"ok"`
	Database    string    `json:"database" example:"ok"`
	StartupTime time.Time `json:"startup_time"`
	Uptime      string    `json:"uptime" example:"2h3m4s"`
}

type healthHandler struct {
	responder   Responder
	ping        func(ctx context.Context) error
	startupTime time.Time
	now         func() time.Time
}

func newHealthHandler(ping func(ctx context.Context) error, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger),
		ping:        ping,
		startupTime: startupTime,
		now:         time.Now,
	}
}

// getHealth reports liveness
// @Summary Health check
// @Description Liveness plus a database ping. Returns 503 when the database is unreachable.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h healthHandler) getHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:      "ok",
			Database:    "ok",
			StartupTime: h.startupTime,
			Uptime:      h.now().Sub(h.startupTime).Truncate(time.Second).String(),
		}
		status := http.StatusOK

		if h.ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := h.ping(ctx); err != nil {
				log.Warn().Err(err).Msg("health check: database ping failed")
				resp.Status = "degraded"
				resp.Database = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		h.responder.WriteJSONStatus(w, status, resp)
	}
}
