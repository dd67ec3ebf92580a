package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/toban/contribhub/internal/domain"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

var notFoundErrors = []error{
	domain.ErrTeamNotFound,
	domain.ErrMemberNotFound,
	domain.ErrIntegrationNotFound,
	domain.ErrResourceNotFound,
	domain.ErrShareNotFound,
}

var forbiddenErrors = []error{
	domain.ErrNotTeamMember,
	domain.ErrForbidden,
	domain.ErrAdminModifyPrivileged,
	domain.ErrAdminRemovePrivileged,
	domain.ErrSelfUpdateOnly,
	domain.ErrSelfRemoveOnly,
	domain.ErrRestrictedField,
}

var conflictErrors = []error{
	domain.ErrAlreadyMember,
	domain.ErrPendingInvitation,
	domain.ErrEmailPendingInvitation,
	domain.ErrTeamExists,
	domain.ErrIntegrationExists,
	domain.ErrAlreadyShared,
	domain.ErrAccessExists,
}

var badRequestErrors = []error{
	domain.ErrInvalidRole,
	domain.ErrInvalidStatus,
	domain.ErrInvalidResendStatus,
	domain.ErrLastOwner,
	domain.ErrMemberIdentityRequired,
	domain.ErrInvalidServiceType,
	domain.ErrInvalidIntegrationStatus,
	domain.ErrInvalidShareLevel,
	domain.ErrInvalidAccessLevel,
	domain.ErrSyncUnsupported,
	domain.ErrNoCredentials,
	domain.ErrOAuthExchange,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// HandleError преобразует доменные ошибки в HTTP ответы. Текст бизнес-ошибки
// передается клиенту как есть.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case matchesAny(err, notFoundErrors):
		RespondWithError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error())
	case matchesAny(err, forbiddenErrors):
		RespondWithError(w, r, http.StatusForbidden, "FORBIDDEN", err.Error())
	case matchesAny(err, conflictErrors):
		RespondWithError(w, r, http.StatusConflict, "CONFLICT", err.Error())
	case matchesAny(err, badRequestErrors):
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidToken):
		RespondWithError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	default:
		RespondWithError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
