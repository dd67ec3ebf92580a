package service

import (
	"context"
	"log/slog"

	"github.com/toban/contribhub/internal/domain"
)

// InvitationSender delivers invitation notifications to invitees. Delivery is
// best effort and never blocks the membership transition itself.
type InvitationSender interface {
	SendInvitation(ctx context.Context, member *domain.TeamMember, customMessage string) error
}

// LogInvitationSender records invitations in the log instead of sending
// email. Used until a real mail provider is wired in.
type LogInvitationSender struct {
	logger *slog.Logger
}

// NewLogInvitationSender creates a new LogInvitationSender
func NewLogInvitationSender(logger *slog.Logger) *LogInvitationSender {
	return &LogInvitationSender{logger: logger}
}

// SendInvitation logs the invitation. The token itself is never logged.
func (s *LogInvitationSender) SendInvitation(_ context.Context, member *domain.TeamMember, customMessage string) error {
	s.logger.Info("invitation issued",
		"team_id", member.TeamID,
		"member_id", member.ID,
		"email", member.Email,
		"has_custom_message", customMessage != "",
	)
	return nil
}
