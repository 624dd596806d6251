// Package composer assembles the grounding prompt for the generative
// fallback: a strict instruction set, the serialized knowledge record for
// the active language, and the raw user question.
package composer

import (
	"encoding/json"
	"strings"

	"github.com/kenwebdev/folio/internal/knowledge"
)

// rules is the instruction set that pins the model to the supplied
// knowledge. The response-language rule is appended per call.
var rules = []string{
	"Answer based ONLY on the KNOWLEDGE BASE provided. Do not invent information.",
	"Never reference facts that are not in the knowledge base.",
	"If the question is unrelated or cannot be answered from the data, politely say you have no information.",
	"Keep answers concise and natural.",
}

// BuildGrounding renders the single-turn prompt sent to the generative
// endpoint. The knowledge record is serialized as JSON so the model sees
// exactly the facts the deterministic matcher works from.
func BuildGrounding(question, lang string, rec knowledge.Record) string {
	facts, err := json.Marshal(rec)
	if err != nil {
		// Record is a plain struct; marshalling cannot realistically fail,
		// but an empty knowledge block must not silently unground the model.
		facts = []byte("{}")
	}

	var sb strings.Builder
	sb.WriteString("You are a chatbot assistant on a personal portfolio website. ")
	sb.WriteString("Your role is to answer questions about the site owner ONLY.\n")
	sb.WriteString("Rules:\n")
	for _, r := range rules {
		sb.WriteString("- ")
		sb.WriteString(r)
		sb.WriteString("\n")
	}
	sb.WriteString("- Respond in the language: ")
	sb.WriteString(lang)
	sb.WriteString("\n\nKNOWLEDGE BASE:\n")
	sb.Write(facts)
	sb.WriteString("\n\nUSER'S QUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\nYOUR ANSWER:")
	return sb.String()
}
