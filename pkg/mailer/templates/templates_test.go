package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/mother-community/config"
)

func TestRender_NewMessage(t *testing.T) {
	cfg := &config.Config{CompanyName: "Mütter-Community", AppURL: "https://app.test"}
	data := ToMap(NewEmailData(cfg, "Bea", "bea@example.com",
		WithTime(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)),
		WithMessage("Anna", "Hallo Bea, Spielplatz morgen?", "https://app.test/messages/anna"),
	))

	subject, text, html, err := Render(NewMessage, data)
	require.NoError(t, err)

	assert.Equal(t, "Neue Nachricht von Anna", subject)
	assert.Contains(t, text, "Spielplatz morgen?")
	assert.Contains(t, text, "01 May 2024, 09:30")
	assert.Contains(t, html, "https://app.test/messages/anna")
}

func TestRender_DefaultsForMissingName(t *testing.T) {
	cfg := &config.Config{AppURL: "https://app.test"}
	_, text, _, err := Render(Welcome, ToMap(NewEmailData(cfg, "", "new@example.com")))
	require.NoError(t, err)
	assert.Contains(t, text, "Hallo liebe Mutter")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate(5, "abc"))
	assert.Equal(t, "äb…", truncate(2, "äbc"))
}
