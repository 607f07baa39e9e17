package services

import (
	"context"
	"fmt"

	"teamtasks/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendTeamInvitation sends the team invitation email using the "team_invitation" template.
func (s *emailService) SendTeamInvitation(ctx context.Context, data *domain.TeamInvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("team invitation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("team_invitation", data)
	if err != nil {
		return fmt.Errorf("failed to render team_invitation template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send team invitation email: %w", err)
	}
	return nil
}
