package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// TeamInvitationEmailData holds data for the team invitation email.
type TeamInvitationEmailData struct {
	Email       string
	TeamName    string
	InviterName string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendTeamInvitation(ctx context.Context, data *TeamInvitationEmailData) error
}
