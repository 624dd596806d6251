package composer

import (
	"strings"
	"testing"

	"github.com/kenwebdev/folio/internal/knowledge"
)

func TestBuildGrounding_ContainsKnowledgeAndQuestion(t *testing.T) {
	age := 22
	rec := knowledge.Record{
		Name:   "Ken",
		Age:    &age,
		Skills: []string{"HTML", "CSS"},
	}

	prompt := BuildGrounding("what do you build?", "en", rec)

	for _, want := range []string{
		`"name":"Ken"`,
		`"age":22`,
		"HTML",
		"what do you build?",
		"KNOWLEDGE BASE:",
		"Respond in the language: en",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, prompt)
		}
	}
}

func TestBuildGrounding_ForbidsOutsideKnowledge(t *testing.T) {
	prompt := BuildGrounding("question", "th", knowledge.Record{Name: "เค็น"})

	if !strings.Contains(prompt, "ONLY") {
		t.Error("prompt does not pin answers to the knowledge base")
	}
	if !strings.Contains(prompt, "politely") {
		t.Error("prompt does not instruct a polite decline")
	}
}

func TestBuildGrounding_EmptyRecord(t *testing.T) {
	prompt := BuildGrounding("q", "en", knowledge.Record{})
	if !strings.Contains(prompt, "KNOWLEDGE BASE:") {
		t.Error("prompt missing knowledge section for empty record")
	}
}
