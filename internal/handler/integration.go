package handler

import (
	"encoding/json"
	"net/http"

	"github.com/toban/contribhub/internal/domain"
	"github.com/toban/contribhub/internal/middleware"
	"github.com/toban/contribhub/internal/service"
)

// IntegrationHandler обрабатывает эндпоинты интеграций
type IntegrationHandler struct {
	integrationService *service.IntegrationService
}

// NewIntegrationHandler создает новый IntegrationHandler
func NewIntegrationHandler(integrationService *service.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{
		integrationService: integrationService,
	}
}

// CreateIntegrationRequest представляет тело запроса на подключение сервиса
type CreateIntegrationRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ServiceType string         `json:"service_type"`
	OAuthCode   string         `json:"oauth_code"`
	RedirectURI string         `json:"redirect_uri"`
	Metadata    map[string]any `json:"metadata"`
}

// UpdateIntegrationRequest представляет тело запроса на частичное обновление интеграции
type UpdateIntegrationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// ShareIntegrationRequest представляет тело запроса на шаринг интеграции
type ShareIntegrationRequest struct {
	TeamID     string `json:"team_id"`
	ShareLevel string `json:"share_level"`
}

// GrantAccessRequest представляет тело запроса на доступ команды к ресурсу
type GrantAccessRequest struct {
	TeamID      string `json:"team_id"`
	AccessLevel string `json:"access_level"`
}

// CreateIntegration обрабатывает POST /teams/{teamID}/integrations
func (h *IntegrationHandler) CreateIntegration(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}

	var req CreateIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if req.ServiceType == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "service_type is required")
		return
	}

	integration, err := h.integrationService.Create(r.Context(), teamID, service.CreateIntegrationInput{
		Name:        req.Name,
		Description: req.Description,
		ServiceType: domain.IntegrationType(req.ServiceType),
		OAuthCode:   req.OAuthCode,
		RedirectURI: req.RedirectURI,
		Metadata:    req.Metadata,
	}, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, integration)
}

// ListIntegrations обрабатывает GET /teams/{teamID}/integrations
func (h *IntegrationHandler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}

	integrations, err := h.integrationService.ListByTeam(r.Context(), teamID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if integrations == nil {
		integrations = []*domain.Integration{}
	}
	RespondWithJSON(w, r, http.StatusOK, integrations)
}

// GetIntegration обрабатывает GET /integrations/{integrationID}
func (h *IntegrationHandler) GetIntegration(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}

	integration, err := h.integrationService.Get(r.Context(), integrationID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, integration)
}

// UpdateIntegration обрабатывает PATCH /integrations/{integrationID}
func (h *IntegrationHandler) UpdateIntegration(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}

	var req UpdateIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	input := service.UpdateIntegrationInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.IntegrationStatus(*req.Status)
		input.Status = &status
	}

	integration, err := h.integrationService.Update(r.Context(), integrationID, input, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, integration)
}

// ShareIntegration обрабатывает POST /integrations/{integrationID}/shares
func (h *IntegrationHandler) ShareIntegration(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}

	var req ShareIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	targetTeamID, err := parseRequestUUID(req.TeamID)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "team_id is required and must be a UUID")
		return
	}

	share, err := h.integrationService.Share(r.Context(), integrationID, targetTeamID,
		domain.ShareLevel(req.ShareLevel), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, share)
}

// UnshareIntegration обрабатывает DELETE /integrations/{integrationID}/shares/{teamID}
func (h *IntegrationHandler) UnshareIntegration(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}

	if err := h.integrationService.Unshare(r.Context(), integrationID, teamID,
		middleware.GetUserIDFromContext(r.Context())); err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Share has been revoked",
	})
}

// ListShares обрабатывает GET /integrations/{integrationID}/shares
func (h *IntegrationHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}

	shares, err := h.integrationService.ListShares(r.Context(), integrationID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if shares == nil {
		shares = []*domain.IntegrationShare{}
	}
	RespondWithJSON(w, r, http.StatusOK, shares)
}

// SyncResources обрабатывает POST /integrations/{integrationID}/resources/sync
func (h *IntegrationHandler) SyncResources(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}

	resources, err := h.integrationService.SyncResources(r.Context(), integrationID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if resources == nil {
		resources = []*domain.ServiceResource{}
	}
	RespondWithJSON(w, r, http.StatusOK, resources)
}

// ListResources обрабатывает GET /integrations/{integrationID}/resources?resource_type=...
func (h *IntegrationHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}

	resources, err := h.integrationService.ListResources(r.Context(), integrationID,
		r.URL.Query().Get("resource_type"), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if resources == nil {
		resources = []*domain.ServiceResource{}
	}
	RespondWithJSON(w, r, http.StatusOK, resources)
}

// GrantResourceAccess обрабатывает POST /integrations/{integrationID}/resources/{resourceID}/access
func (h *IntegrationHandler) GrantResourceAccess(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}
	resourceID, ok := URLParamUUID(r, "resourceID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid resource id")
		return
	}

	var req GrantAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	teamID, err := parseRequestUUID(req.TeamID)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "team_id is required and must be a UUID")
		return
	}

	access, err := h.integrationService.GrantResourceAccess(r.Context(), integrationID, resourceID, teamID,
		domain.AccessLevel(req.AccessLevel), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, access)
}

// ListEvents обрабатывает GET /integrations/{integrationID}/events
func (h *IntegrationHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	integrationID, ok := URLParamUUID(r, "integrationID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid integration id")
		return
	}

	events, err := h.integrationService.ListEvents(r.Context(), integrationID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if events == nil {
		events = []*domain.IntegrationEvent{}
	}
	RespondWithJSON(w, r, http.StatusOK, events)
}
