package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_SubstitutesKnownKeys(t *testing.T) {
	out := Render("Hi {{name}}, greetings from {{company}}", map[string]string{
		"name":    "Ada",
		"company": "Acme",
	})
	assert.Equal(t, "Hi Ada, greetings from Acme", out)
}

func TestRender_LeavesUnresolvedKeysLiteral(t *testing.T) {
	out := Render("Hi {{name}}, from {{sender}}", map[string]string{"name": "Ada"})
	assert.Equal(t, "Hi Ada, from {{sender}}", out)
}

func TestRender_RepeatedPlaceholder(t *testing.T) {
	out := Render("{{name}} and {{name}} again", map[string]string{"name": "Ada"})
	assert.Equal(t, "Ada and Ada again", out)
}

func TestRender_EmptyContext(t *testing.T) {
	out := Render("Hi {{name}}", map[string]string{})
	assert.Equal(t, "Hi {{name}}", out)
}

func TestExtractPlaceholders(t *testing.T) {
	keys := ExtractPlaceholders("Hi {{name}}, {{company}} and {{name}} again, bye {{sender_name}}")
	assert.Equal(t, []string{"name", "company", "sender_name"}, keys)
}

func TestExtractPlaceholders_None(t *testing.T) {
	assert.Empty(t, ExtractPlaceholders("no tokens here"))
}
