package announce

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	values := map[string]string{
		Mention: "<@1>",
		User:    "alice",
		Server:  "XLZR",
		Level:   "3",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"welcome", DefaultWelcome, "Welcome <@1> to XLZR!"},
		{"level up", DefaultLevelUp, "Congratulations <@1>! You reached level 3!"},
		{"repeated", "{user} {user}", "alice alice"},
		{"unknown stays literal", "Hi {user}, see {rules}", "Hi alice, see {rules}"},
		{"no placeholders", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, values))
		})
	}
}

func TestRenderMissingValue(t *testing.T) {
	assert.Equal(t, "Goodbye {user}!", Render("Goodbye {user}!", map[string]string{Server: "x"}))
}

func TestParseColor(t *testing.T) {
	for _, in := range []string{"#ffd700", "0xffd700", "ffd700", " #FFD700 "} {
		c, err := ParseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, 0xffd700, c)
	}

	for _, in := range []string{"", "#fff", "red", "#gggggg"} {
		_, err := ParseColor(in)
		assert.ErrorIs(t, err, ErrInvalidColor, in)
	}

	assert.Equal(t, ColorGoodbye, ColorOr("nope", ColorGoodbye))
	assert.Equal(t, 0x123456, ColorOr("#123456", ColorGoodbye))
}

func TestOr(t *testing.T) {
	assert.Equal(t, DefaultWelcome, Or("  ", DefaultWelcome))
	assert.Equal(t, "custom", Or("custom", DefaultWelcome))
}

func TestDefaultTutorialNeedsOnlyMention(t *testing.T) {
	got := Render(DefaultTutorial, map[string]string{Mention: "<@1>"})
	assert.True(t, strings.HasPrefix(got, "Hello <@1>!"))
	assert.NotContains(t, got, "{")
	assert.Contains(t, got, "re-checked daily")
}
