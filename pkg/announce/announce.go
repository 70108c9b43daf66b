// Package announce renders announcement templates such as welcome and
// level-up messages.
package announce

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder names understood by Render
const (
	Mention = "mention"
	User    = "user"
	Server  = "server"
	Level   = "level"
)

// Default templates and colors per feature
const (
	DefaultWelcome  = "Welcome {mention} to {server}!"
	DefaultGoodbye  = "Goodbye {user}! Thanks for being part of {server}."
	DefaultLevelUp  = "Congratulations {mention}! You reached level {level}!"
	DefaultTutorial = "Hello {mention}! Your verification was successful.\n" +
		"Read the server rules, pick your roles and use /help to see what the bot can do.\n" +
		"Your verification is re-checked daily."

	TutorialTitle  = "Welcome Tutorial"
	TutorialFooter = "Enjoy your time in the server!"

	ColorWelcome  = 0x7289da
	ColorGoodbye  = 0xff0000
	ColorLevelUp  = 0xffd700
	ColorTutorial = 0x00ff7f
	ColorWarning  = 0xffa500
)

// ErrInvalidColor is returned by ParseColor for malformed input
var ErrInvalidColor = errors.New("invalid color")

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// Render substitutes {name} placeholders with values. Placeholders without a
// value are left as written.
func Render(template string, values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := values[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// ParseColor accepts #rrggbb, 0xrrggbb or rrggbb
func ParseColor(s string) (int, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "#")
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if len(raw) != 6 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return int(v), nil
}

// ColorOr parses s and returns fallback when it is empty or malformed
func ColorOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// Or returns template, or fallback when template is empty
func Or(template, fallback string) string {
	if strings.TrimSpace(template) == "" {
		return fallback
	}
	return template
}
