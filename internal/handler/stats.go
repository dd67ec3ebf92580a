package handler

import (
	"net/http"

	"github.com/toban/contribhub/internal/middleware"
	"github.com/toban/contribhub/internal/service"
)

// StatsHandler обрабатывает эндпоинты статистики
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler создает новый StatsHandler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetStats обрабатывает GET /stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetStats(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetTeamStats обрабатывает GET /teams/{teamID}/stats
func (h *StatsHandler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}

	stats, err := h.statsService.GetTeamStats(r.Context(), teamID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats)
}
