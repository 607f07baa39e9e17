package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamtasks/internal/domain"
)

func TestTemplateRenderer_Render(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	data := &domain.TeamInvitationEmailData{
		Email:       "bob@example.com",
		TeamName:    "Design Guild",
		InviterName: "Alice",
	}

	subject, htmlBody, textBody, err := renderer.Render("team_invitation", data)
	require.NoError(t, err)

	assert.Equal(t, `Alice invited you to join Design Guild`, subject)
	assert.Contains(t, htmlBody, "Design Guild")
	assert.Contains(t, htmlBody, "Alice")
	assert.Contains(t, textBody, `invited you to join the team "Design Guild"`)
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	_, _, _, err = renderer.Render("password_reset", nil)
	require.Error(t, err)
}
