package knowledge

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup removes HTML tags from s, keeping only text content. Bio fields
// may carry inline markup for the page; chat answers must be plain text.
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var sb strings.Builder
	tok := html.NewTokenizer(strings.NewReader(s))
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(tok.Text())
		}
	}
}
