package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/personalab/persona-platform/internal/model"
)

var testPersona = model.Persona{
	Name:          "stargazer",
	Tone:          "friendly",
	Domain:        "astronomy",
	Goals:         []string{"explain concepts simply", "cite observations"},
	ResponseStyle: "concise",
}

func TestComposeIsDeterministic(t *testing.T) {
	first := Compose(testPersona, "what is a nebula?")
	second := Compose(testPersona, "what is a nebula?")
	assert.Equal(t, first, second)
}

func TestComposeRendersPersonaAttributes(t *testing.T) {
	out := Compose(testPersona, "what is a nebula?")

	assert.Contains(t, out, "You are stargazer, an AI specialized in astronomy.")
	assert.Contains(t, out, "Your tone should be friendly and your responses must be in a concise style.")
	assert.Contains(t, out, "- explain concepts simply\n- cite observations\n")
	assert.Contains(t, out, "User query: what is a nebula?")
}

func TestComposeGoalsOnePerLine(t *testing.T) {
	out := Compose(testPersona, "q")
	assert.Equal(t, len(testPersona.Goals), strings.Count(out, "\n- "))
}

func TestWrapWithContextDelimitsPassages(t *testing.T) {
	wrapped := WrapWithContext("what is a nebula?", []string{"passage one", "passage two"})

	assert.Contains(t, wrapped, "---CONTEXT BEGIN---\npassage one\n\npassage two\n---CONTEXT END---")
	assert.Contains(t, wrapped, "Please answer this question: what is a nebula?")
}

func TestWrapWithContextEmptyIsIdentity(t *testing.T) {
	assert.Equal(t, "question", WrapWithContext("question", nil))
	assert.Equal(t, "question", WrapWithContext("question", []string{}))
	assert.Equal(t, "question", WrapWithContext("question", []string{"", "   "}))
}

func TestContextOnlyWrapsNeverAltersPersonaContent(t *testing.T) {
	plain := Compose(testPersona, "what is a nebula?")
	grounded := Compose(testPersona, WrapWithContext("what is a nebula?", []string{"ctx"}))

	// The persona-derived preamble is identical; only the query section
	// differs by the wrapping.
	head := plain[:strings.Index(plain, "User query:")]
	assert.True(t, strings.HasPrefix(grounded, head))
	assert.Contains(t, grounded, "ctx")
	assert.Contains(t, grounded, "what is a nebula?")
}
