package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/greenloop/pkg/mailer"
	mailtpl "github.com/oksasatya/greenloop/pkg/mailer/templates"
)

func TestRenderEmailJobTemplate(t *testing.T) {
	job := &mailer.EmailJob{
		To:       "ada@example.com",
		Template: "LEVEL_UP",
		Data:     map[string]any{"Name": "Ada", "Level": "Tree", "TotalXP": float64(2010)},
	}
	subject, text, html, err := RenderEmailJob(job)
	require.NoError(t, err)
	assert.Equal(t, "You grew into a Tree!", subject)
	assert.Contains(t, text, "2010 XP")
	assert.NotEmpty(t, html)
	assert.Equal(t, "ada@example.com", job.Data["RecipientEmail"])
}

func TestRenderEmailJobRaw(t *testing.T) {
	subject, text, _, err := RenderEmailJob(&mailer.EmailJob{To: "a@b.c", Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Notification", subject)
	assert.Equal(t, "hello", text)
}

func TestRenderEmailJobErrors(t *testing.T) {
	_, _, _, err := RenderEmailJob(&mailer.EmailJob{Text: "x"})
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, _, _, err = RenderEmailJob(&mailer.EmailJob{To: "a@b.c"})
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, _, _, err = RenderEmailJob(&mailer.EmailJob{To: "a@b.c", Template: "login_otp"})
	assert.Error(t, err)
	assert.False(t, mailtpl.Known("login_otp"))
}
