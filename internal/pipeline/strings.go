package pipeline

import "github.com/kenwebdev/folio/internal/knowledge"

// uiStrings are the fixed chat strings per UI language.
type uiStrings struct {
	greeting string
	apology  string
}

var chatStrings = map[string]uiStrings{
	"th": {
		greeting: "สวัสดีครับ! ถามเกี่ยวกับเค็นได้เลย",
		apology:  "ขออภัย เกิดข้อผิดพลาดในการเชื่อมต่อแชท",
	},
	"en": {
		greeting: "Hi there! Ask me anything about Ken.",
		apology:  "Sorry, something went wrong while answering. Please try again.",
	},
	"ja": {
		greeting: "こんにちは！ケンについて何でも聞いてください。",
		apology:  "申し訳ありません。チャットの接続でエラーが発生しました。",
	},
}

// Greeting returns the one-time welcome bubble text for lang.
func Greeting(lang string) string {
	if s, ok := chatStrings[lang]; ok {
		return s.greeting
	}
	return chatStrings[knowledge.DefaultLang].greeting
}

// Apology returns the fixed message shown when the final stage fails.
func Apology(lang string) string {
	if s, ok := chatStrings[lang]; ok {
		return s.apology
	}
	return chatStrings[knowledge.DefaultLang].apology
}
