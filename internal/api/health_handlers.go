package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
)

type HealthResponse struct {
	Status         string `json:"status"`
	PairingClients int    `json:"pairing_clients"`
}

// @Summary      Health check
// @Description  Reports whether the database is reachable.
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", PairingClients: s.wsHub.Count()})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", PairingClients: s.wsHub.Count()})
}
