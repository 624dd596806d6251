// Package knowledge holds the per-language fact sheet about the site owner.
// It is the single grounding source for both the deterministic matcher and
// the generative fallback.
package knowledge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// DefaultLang is the record used when a requested language is absent.
const DefaultLang = "th"

//go:embed data.json
var embeddedData []byte

// Project is a single portfolio entry.
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Record is the fact sheet for one language.
type Record struct {
	Name       string    `json:"name"`
	Age        *int      `json:"age,omitempty"`
	RoleShort  string    `json:"role_short,omitempty"`
	RoleLong   string    `json:"role_long,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Skills     []string  `json:"skills,omitempty"`
	Projects   []Project `json:"projects,omitempty"`
	MetaStatus string    `json:"meta_status,omitempty"`
	MetaLang   string    `json:"meta_lang,omitempty"`
	MetaFocus  string    `json:"meta_focus,omitempty"`
}

// Document maps language codes to fact records. It is immutable after load.
type Document struct {
	records map[string]Record
}

// Parse decodes a knowledge payload. The payload must be a JSON object keyed
// by language code. An empty or malformed payload is an error; callers treat
// a nil document as "no deterministic answer available".
func Parse(data []byte) (*Document, error) {
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing knowledge payload: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("knowledge payload has no language records")
	}
	return &Document{records: records}, nil
}

// Load reads a knowledge payload from path. An empty path returns the
// embedded default document.
func Load(path string) (*Document, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge file: %w", err)
	}
	return Parse(data)
}

// Default returns the document built from the embedded payload.
func Default() (*Document, error) {
	return Parse(embeddedData)
}

// Resolve returns the record for lang, falling back to DefaultLang when lang
// is unknown. The boolean is false only when the default record is missing
// too (a document with neither is still usable for other languages).
func (d *Document) Resolve(lang string) (Record, bool) {
	if d == nil {
		return Record{}, false
	}
	if rec, ok := d.records[lang]; ok {
		return rec, true
	}
	rec, ok := d.records[DefaultLang]
	return rec, ok
}

// Has reports whether the document carries a record for lang.
func (d *Document) Has(lang string) bool {
	if d == nil {
		return false
	}
	_, ok := d.records[lang]
	return ok
}

// Languages returns the language codes present in the document.
func (d *Document) Languages() []string {
	if d == nil {
		return nil
	}
	langs := make([]string, 0, len(d.records))
	for lang := range d.records {
		langs = append(langs, lang)
	}
	return langs
}
