package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/toban/contribhub/internal/domain"
	"github.com/toban/contribhub/internal/middleware"
	"github.com/toban/contribhub/internal/service"
)

// MemberHandler обрабатывает эндпоинты участников команд
type MemberHandler struct {
	memberService *service.MemberService
}

// NewMemberHandler создает новый MemberHandler
func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

// AddMemberRequest представляет тело запроса на добавление участника
type AddMemberRequest struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	DisplayName      string `json:"display_name"`
	Role             string `json:"role"`
	InvitationStatus string `json:"invitation_status"`
}

// UpdateMemberRequest представляет тело запроса на частичное обновление участника
type UpdateMemberRequest struct {
	Role             *string `json:"role"`
	DisplayName      *string `json:"display_name"`
	InvitationStatus *string `json:"invitation_status"`
}

// Допустимые ключи тела PATCH запроса участника
var memberUpdateKeys = map[string]struct{}{
	"role":              {},
	"display_name":      {},
	"invitation_status": {},
}

// ResendInvitationRequest представляет тело запроса на переотправку приглашения
type ResendInvitationRequest struct {
	Message string `json:"message"`
}

// ListMembers обрабатывает GET /teams/{teamID}/members?status=...
func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}

	var status *domain.InvitationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.InvitationStatus(raw)
		status = &s
	}

	members, err := h.memberService.List(r.Context(), teamID, middleware.GetUserIDFromContext(r.Context()), status)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if members == nil {
		members = []*domain.TeamMember{}
	}
	RespondWithJSON(w, r, http.StatusOK, members)
}

// GetMember обрабатывает GET /teams/{teamID}/members/{memberID}
func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}
	memberID, ok := URLParamUUID(r, "memberID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid member id")
		return
	}

	member, err := h.memberService.Get(r.Context(), teamID, memberID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, member)
}

// AddMember обрабатывает POST /teams/{teamID}/members
func (h *MemberHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if req.Role == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "role is required")
		return
	}

	member, err := h.memberService.Add(r.Context(), teamID, service.AddMemberInput{
		UserID:           req.UserID,
		Email:            req.Email,
		DisplayName:      req.DisplayName,
		Role:             domain.Role(req.Role),
		InvitationStatus: domain.InvitationStatus(req.InvitationStatus),
	}, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, member)
}

// UpdateMember обрабатывает PATCH /teams/{teamID}/members/{memberID}
func (h *MemberHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}
	memberID, ok := URLParamUUID(r, "memberID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid member id")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	var req UpdateMemberRequest
	if err := json.Unmarshal(body, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	input := service.UpdateMemberInput{
		DisplayName: req.DisplayName,
	}
	for key := range fields {
		if _, ok := memberUpdateKeys[key]; !ok {
			input.HasUnknownFields = true
		}
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		if !role.IsValid() {
			HandleError(w, r, domain.ErrInvalidRole)
			return
		}
		input.Role = &role
	}
	if req.InvitationStatus != nil {
		status := domain.InvitationStatus(*req.InvitationStatus)
		if !status.IsValid() {
			HandleError(w, r, domain.ErrInvalidStatus)
			return
		}
		input.InvitationStatus = &status
	}

	member, err := h.memberService.Update(r.Context(), teamID, memberID, input, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, member)
}

// RemoveMember обрабатывает DELETE /teams/{teamID}/members/{memberID}
func (h *MemberHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}
	memberID, ok := URLParamUUID(r, "memberID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid member id")
		return
	}

	result, err := h.memberService.Remove(r.Context(), teamID, memberID, middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// ResendInvitation обрабатывает POST /teams/{teamID}/members/{memberID}/resend-invitation
func (h *MemberHandler) ResendInvitation(w http.ResponseWriter, r *http.Request) {
	teamID, ok := URLParamUUID(r, "teamID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid team id")
		return
	}
	memberID, ok := URLParamUUID(r, "memberID")
	if !ok {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid member id")
		return
	}

	// Тело запроса опционально
	var req ResendInvitationRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.memberService.ResendInvitation(r.Context(), teamID, memberID,
		middleware.GetUserIDFromContext(r.Context()), req.Message)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}
