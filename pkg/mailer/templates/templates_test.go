package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/greenloop/config"
)

func TestRenderLevelUp(t *testing.T) {
	cfg := &config.Config{AppName: "greenloop", CompanyName: "GreenLoop", AppURL: "https://app.example"}
	data := NewLevelUpData(cfg, "Ada", "ada@example.com",
		WithProgress("Sapling", "Seedling", 520),
		WithNextLevel("Tree", 2000),
	)

	subject, text, html, err := Render(LevelUp, data)
	require.NoError(t, err)
	assert.Equal(t, "You grew into a Sapling!", subject)
	assert.Contains(t, text, "520 XP")
	assert.Contains(t, text, "Next stop: Tree at 2000 XP")
	assert.Contains(t, html, "<strong>Seedling</strong>")
	assert.Contains(t, html, "https://app.example")
}

func TestRenderLevelUpTopTier(t *testing.T) {
	data := NewLevelUpData(&config.Config{}, "", "x@example.com", WithProgress("Forest", "Tree", 5000))

	_, text, _, err := Render(LevelUp, data)
	require.NoError(t, err)
	assert.Contains(t, text, "Hi EcoWarrior")
	assert.Contains(t, text, "top of the canopy")
}

func TestRenderUnknownTemplate(t *testing.T) {
	assert.False(t, Known("login_otp"))
	_, _, _, err := Render("login_otp", map[string]any{})
	assert.Error(t, err)
}
