package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kenwebdev/folio/internal/knowledge"
	"github.com/kenwebdev/folio/internal/pipeline"
	"github.com/kenwebdev/folio/internal/prefs"
)

// stubResolver implements Resolver.
type stubResolver struct {
	reply string
	err   error
	lang  string
}

func (s *stubResolver) Resolve(ctx context.Context, question, lang string) (string, pipeline.Metadata, error) {
	s.lang = lang
	meta := pipeline.Metadata{Stage: pipeline.StageMatched, Lang: lang}
	if s.err != nil {
		meta.Stage = pipeline.StageFailed
	}
	return s.reply, meta, s.err
}

func testDeps(t *testing.T, r Resolver) Deps {
	t.Helper()
	doc, err := knowledge.Parse([]byte(`{"th":{"name":"เค็น","age":22},"en":{"name":"Ken","age":22}}`))
	if err != nil {
		t.Fatal(err)
	}
	store, err := prefs.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return Deps{Resolver: r, Knowledge: doc, Prefs: store, DefaultLang: "th"}
}

func TestHealth(t *testing.T) {
	h := NewHandler(testDeps(t, &stubResolver{}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestChat_Success(t *testing.T) {
	r := &stubResolver{reply: "อายุ 22 ปี"}
	h := NewHandler(testDeps(t, r))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"อายุเท่าไหร่","lang":"th"}`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Reply != "อายุ 22 ปี" {
		t.Errorf("reply = %q", resp.Reply)
	}
}

func TestChat_MissingMessage(t *testing.T) {
	h := NewHandler(testDeps(t, &stubResolver{}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"lang":"th"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChat_DefaultLangApplied(t *testing.T) {
	r := &stubResolver{reply: "ok"}
	h := NewHandler(testDeps(t, r))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`)))

	if r.lang != "th" {
		t.Errorf("resolver lang = %q, want configured default", r.lang)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestChat_TerminalFailureReturnsApology(t *testing.T) {
	r := &stubResolver{err: errors.New("no API key configured")}
	h := NewHandler(testDeps(t, r))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"q","lang":"th"}`)))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Reply != pipeline.Apology("th") {
		t.Errorf("reply = %q, want localized apology", resp.Reply)
	}
}

func TestKnowledge_ServesRecord(t *testing.T) {
	h := NewHandler(testDeps(t, &stubResolver{}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/knowledge?lang=en", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out knowledge.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	if out.Name != "Ken" {
		t.Errorf("record name = %q", out.Name)
	}
}

func TestKnowledge_UnknownLangFallsBack(t *testing.T) {
	h := NewHandler(testDeps(t, &stubResolver{}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/knowledge?lang=de", nil))

	var out knowledge.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	if out.Name != "เค็น" {
		t.Errorf("record name = %q, want default-language record", out.Name)
	}
}

func TestGreeting_ShownOnce(t *testing.T) {
	h := NewHandler(testDeps(t, &stubResolver{}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/chat/greeting?lang=en", nil))

	var out struct {
		Show     bool   `json:"show"`
		Greeting string `json:"greeting"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !out.Show {
		t.Error("first greeting not shown")
	}
	if out.Greeting != pipeline.Greeting("en") {
		t.Errorf("greeting = %q", out.Greeting)
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/chat/greeting?lang=en", nil))
	json.Unmarshal(second.Body.Bytes(), &out)
	if out.Show {
		t.Error("greeting shown twice")
	}
}

func TestPrefs_RoundTrip(t *testing.T) {
	h := NewHandler(testDeps(t, &stubResolver{}))

	patch := httptest.NewRecorder()
	h.ServeHTTP(patch, httptest.NewRequest(http.MethodPatch, "/prefs", strings.NewReader(`{"lang":"ja","theme":"light"}`)))
	if patch.Code != http.StatusNoContent {
		t.Fatalf("patch status = %d, body = %s", patch.Code, patch.Body.String())
	}

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/prefs", nil))

	var out map[string]string
	if err := json.Unmarshal(get.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding prefs: %v", err)
	}
	if out[prefs.KeyLang] != "ja" || out[prefs.KeyTheme] != "light" {
		t.Errorf("prefs = %v", out)
	}
	if out[prefs.KeyChatSeen] != "false" {
		t.Errorf("chat_seen = %q, want false before first greeting", out[prefs.KeyChatSeen])
	}
}

func TestPrefs_RejectsUnknownKeyAndBadTheme(t *testing.T) {
	h := NewHandler(testDeps(t, &stubResolver{}))

	for _, body := range []string{`{"volume":"11"}`, `{"theme":"neon"}`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/prefs", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("patch %s status = %d, want 400", body, rec.Code)
		}
	}
}
