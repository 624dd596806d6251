// Package intent implements the deterministic, rule-based stage of the chat
// pipeline: keyword predicates over normalized user text, answered straight
// from the knowledge document.
package intent

import (
	"fmt"
	"strings"

	"github.com/kenwebdev/folio/internal/knowledge"
)

// rule pairs a keyword predicate with an answer extractor. Rules are
// evaluated in declaration order and the first rule whose predicate holds
// AND whose extractor finds its backing field wins. A keyword hit with a
// missing field falls through to the next rule.
type rule struct {
	intent  string
	applies func(q query) bool
	answer  func(lang string, rec knowledge.Record) (string, bool)
}

// query is the normalized form of a user question.
type query struct {
	text         string
	mentionsName bool
}

// Matcher answers questions from a knowledge document using an ordered rule
// table. Matching is case-insensitive, trimmed, and language-agnostic: the
// keyword sets mix Thai, English, and Japanese tokens so a question matches
// regardless of the selected UI language. A Matcher is immutable and safe
// for concurrent use.
type Matcher struct {
	rules       []rule
	nameAliases []string
}

// defaultNameAliases are the owner-name spellings recognized in questions.
var defaultNameAliases = []string{"ken", "เคน", "เค็น", "ケン"}

// New returns a Matcher with the default rule table and name aliases.
func New() *Matcher {
	m := &Matcher{nameAliases: defaultNameAliases}
	m.rules = defaultRules()
	return m
}

// NewWithAliases returns a Matcher recognizing the given owner-name
// spellings in identity questions. Aliases are matched case-insensitively.
func NewWithAliases(aliases []string) *Matcher {
	if len(aliases) == 0 {
		return New()
	}
	lowered := make([]string, len(aliases))
	for i, a := range aliases {
		lowered[i] = strings.ToLower(a)
	}
	m := &Matcher{nameAliases: lowered}
	m.rules = defaultRules()
	return m
}

// Match inspects question against the rule table and extracts an answer from
// doc when a rule matches. It returns ("", false) when no rule applies or
// the matched rule's backing field is absent, which signals "defer to the
// next pipeline stage". Match never mutates doc and is idempotent.
func (m *Matcher) Match(question, lang string, doc *knowledge.Document) (string, bool) {
	rec, ok := doc.Resolve(lang)
	if !ok {
		return "", false
	}

	q := query{text: strings.ToLower(strings.TrimSpace(question))}
	if q.text == "" {
		return "", false
	}
	q.mentionsName = containsAny(q.text, m.nameAliases...)

	for _, r := range m.rules {
		if !r.applies(q) {
			continue
		}
		if answer, ok := r.answer(lang, rec); ok {
			return answer, true
		}
	}
	return "", false
}

// defaultRules builds the rule table. Order is the tie-break policy:
// identity comes first because its predicate is the most specific and
// overlaps with the name-mention checks of later intents.
func defaultRules() []rule {
	return []rule{
		{
			intent: "identity",
			applies: func(q query) bool {
				if containsAny(q.text, "คือใคร", "who is", "who are you", "誰") || q.text == "who" {
					return true
				}
				return q.mentionsName && (containsWord(q.text, "who") || strings.Contains(q.text, "คือ"))
			},
			answer: func(_ string, rec knowledge.Record) (string, bool) {
				if rec.Name == "" {
					return "", false
				}
				role := rec.RoleLong
				if role == "" {
					role = rec.RoleShort
				}
				if role == "" {
					return rec.Name, true
				}
				return fmt.Sprintf("%s — %s", rec.Name, role), true
			},
		},
		{
			intent: "age",
			applies: func(q query) bool {
				return containsAny(q.text, "อายุ", "年齢", "何歳") || containsWord(q.text, "age")
			},
			answer: func(lang string, rec knowledge.Record) (string, bool) {
				if rec.Age == nil {
					return "", false
				}
				return fmt.Sprintf(template(lang).age, *rec.Age), true
			},
		},
		{
			intent: "skills",
			applies: func(q query) bool {
				return containsAny(q.text, "ทักษะ", "สกิล", "スキル") || containsWord(q.text, "skills")
			},
			answer: func(lang string, rec knowledge.Record) (string, bool) {
				if len(rec.Skills) == 0 {
					return "", false
				}
				return template(lang).skills + strings.Join(rec.Skills, ", "), true
			},
		},
		{
			intent: "projects",
			applies: func(q query) bool {
				return containsAny(q.text, "ผลงาน", "実績", "ポートフォリオ") ||
					containsWord(q.text, "projects") || containsWord(q.text, "portfolio")
			},
			answer: func(lang string, rec knowledge.Record) (string, bool) {
				if len(rec.Projects) == 0 {
					return "", false
				}
				lines := make([]string, 0, len(rec.Projects)+1)
				lines = append(lines, template(lang).projects)
				for _, p := range rec.Projects {
					lines = append(lines, fmt.Sprintf("- %s: %s", p.Name, p.Description))
				}
				return strings.Join(lines, "\n"), true
			},
		},
		{
			intent: "languages",
			applies: func(q query) bool {
				return containsAny(q.text, "ภาษา", "言語") ||
					containsWord(q.text, "languages") || containsWord(q.text, "language")
			},
			answer: func(_ string, rec knowledge.Record) (string, bool) {
				if rec.MetaLang == "" {
					return "", false
				}
				return rec.MetaLang, true
			},
		},
		{
			intent: "status",
			applies: func(q query) bool {
				return containsAny(q.text, "สถานะ", "ว่าง", "พร้อมรับงาน", "ステータス") ||
					containsWord(q.text, "available") || containsWord(q.text, "availability")
			},
			answer: func(_ string, rec knowledge.Record) (string, bool) {
				if rec.MetaStatus == "" {
					return "", false
				}
				return rec.MetaStatus, true
			},
		},
		{
			intent: "bio",
			applies: func(q query) bool {
				return containsAny(q.text, "แนะนำตัว", "自己紹介") ||
					containsWord(q.text, "about") || containsWord(q.text, "bio") ||
					containsWord(q.text, "yourself")
			},
			answer: func(_ string, rec knowledge.Record) (string, bool) {
				if rec.Bio == "" {
					return "", false
				}
				return knowledge.StripMarkup(rec.Bio), true
			},
		},
	}
}

// answerTemplate holds the per-language framing around extracted facts.
type answerTemplate struct {
	age      string
	skills   string
	projects string
}

var templates = map[string]answerTemplate{
	"th": {age: "อายุ %d ปี", skills: "ทักษะ: ", projects: "ตัวอย่างผลงาน"},
	"en": {age: "Age %d", skills: "Skills: ", projects: "Selected projects"},
	"ja": {age: "%d歳です", skills: "スキル: ", projects: "制作実績の例"},
}

func template(lang string) answerTemplate {
	if t, ok := templates[lang]; ok {
		return t
	}
	return templates[knowledge.DefaultLang]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// containsWord reports whether s contains w bounded by non-letter runes.
// Plain substring matching is fine for Thai and Japanese tokens, but short
// English keywords need boundaries ("age" must not fire on "languages").
func containsWord(s, w string) bool {
	for start := 0; ; {
		i := strings.Index(s[start:], w)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(w)
		leftOK := i == 0 || !isASCIILetter(s[i-1])
		rightOK := end == len(s) || !isASCIILetter(s[end])
		if leftOK && rightOK {
			return true
		}
		start = i + 1
	}
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
