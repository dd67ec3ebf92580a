package handler

import (
	"encoding/json"
	"net/http"

	"github.com/toban/contribhub/internal/domain"
	"github.com/toban/contribhub/internal/middleware"
	"github.com/toban/contribhub/internal/service"
)

// TeamHandler обрабатывает эндпоинты команд
type TeamHandler struct {
	teamService *service.TeamService
}

// NewTeamHandler создает новый TeamHandler
func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeamRequest представляет тело запроса на создание команды
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// UpdateTeamRequest представляет тело запроса на частичное обновление команды
type UpdateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// CreateTeam обрабатывает POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if req.Name == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "name is required")
		return
	}

	creator := domain.UserInfo{
		ID:    middleware.GetUserIDFromContext(r.Context()),
		Email: middleware.GetEmailFromContext(r.Context()),
	}

	team, err := h.teamService.Create(r.Context(), service.CreateTeamInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}, creator)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, team)
}

// ListTeams обрабатывает GET /teams
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	teams, err := h.teamService.List(r.Context(), userID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if teams == nil {
		teams = []*domain.Team{}
	}
	RespondWithJSON(w, r, http.StatusOK, teams)
}

// GetTeam обрабатывает GET /teams/{teamID}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}

	team, err := h.teamService.Get(r.Context(), teamID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, team)
}

// UpdateTeam обрабатывает PATCH /teams/{teamID}
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	team, err := h.teamService.Update(r.Context(), teamID, service.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, team)
}
