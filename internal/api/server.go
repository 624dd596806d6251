// Package api exposes the answer-resolution pipeline over HTTP for the
// static portfolio page, plus an MCP surface for agent clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/kenwebdev/folio/internal/knowledge"
	"github.com/kenwebdev/folio/internal/pipeline"
	"github.com/kenwebdev/folio/internal/prefs"
)

const maxRequestBodySize = 64 << 10 // 64KB; chat messages are short

// Resolver is the pipeline contract the HTTP layer needs.
type Resolver interface {
	Resolve(ctx context.Context, question, lang string) (string, pipeline.Metadata, error)
}

// Deps holds the handler dependencies.
type Deps struct {
	Resolver    Resolver
	Knowledge   *knowledge.Document // may be nil
	Prefs       *prefs.Store        // may be nil; preference routes then 404
	DefaultLang string
}

// ChatRequest is the body of POST /chat, matching the widget's contract.
type ChatRequest struct {
	Message string `json:"message"`
	Lang    string `json:"lang"`
}

// ChatResponse is the success body of POST /chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// NewHandler builds the HTTP router. CORS is open for GET/POST/PATCH since
// the widget is served from a static page origin.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", handleHealth)
	r.Post("/chat", handleChat(deps))
	r.Get("/chat/greeting", handleGreeting(deps))
	r.Get("/knowledge", handleKnowledge(deps))
	r.Get("/prefs", handleGetPrefs(deps))
	r.Patch("/prefs", handlePatchPrefs(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}
		if req.Lang == "" {
			req.Lang = deps.DefaultLang
		}

		reply, meta, err := deps.Resolver.Resolve(r.Context(), req.Message, req.Lang)
		if err != nil {
			// Terminal pipeline failure: the page shows the localized
			// apology; the status still signals the fault for diagnostics.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(ChatResponse{Reply: pipeline.Apology(meta.Lang)})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatResponse{Reply: reply})
	}
}

func handleGreeting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := langParam(r, deps)

		show := true
		if deps.Prefs != nil {
			first, err := deps.Prefs.MarkChatSeen()
			if err != nil {
				httpError(w, http.StatusInternalServerError, "server_error", "reading preferences: %v", err)
				return
			}
			show = first
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"show":     show,
			"greeting": pipeline.Greeting(lang),
		})
	}
}

func handleKnowledge(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := langParam(r, deps)
		rec, ok := deps.Knowledge.Resolve(lang)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "no knowledge record for %q", lang)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	}
}

func handleGetPrefs(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Prefs == nil {
			httpError(w, http.StatusNotFound, "not_found", "preference store disabled")
			return
		}
		all, err := deps.Prefs.All()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "reading preferences: %v", err)
			return
		}
		// Always answer the three known keys so the page can render without
		// probing for absence.
		out := map[string]string{
			prefs.KeyLang:     deps.Prefs.Lang(deps.DefaultLang),
			prefs.KeyTheme:    deps.Prefs.Theme(),
			prefs.KeyChatSeen: "false",
		}
		if v, ok := all[prefs.KeyChatSeen]; ok {
			out[prefs.KeyChatSeen] = v
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

var patchableKeys = map[string]func(string) bool{
	prefs.KeyLang:  func(v string) bool { return v != "" },
	prefs.KeyTheme: func(v string) bool { return v == "light" || v == "dark" },
}

func handlePatchPrefs(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Prefs == nil {
			httpError(w, http.StatusNotFound, "not_found", "preference store disabled")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var updates map[string]string
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		for key, value := range updates {
			valid, known := patchableKeys[key]
			if !known {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown preference %q", key)
				return
			}
			if !valid(value) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid value %q for %q", value, key)
				return
			}
		}
		for key, value := range updates {
			if err := deps.Prefs.Set(key, value); err != nil {
				httpError(w, http.StatusInternalServerError, "server_error", "saving preference: %v", err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// langParam reads ?lang=, validates it against the knowledge document, and
// falls back to the saved preference and then the configured default.
func langParam(r *http.Request, deps Deps) string {
	lang := r.URL.Query().Get("lang")
	if lang == "" && deps.Prefs != nil {
		if v, err := deps.Prefs.Get(prefs.KeyLang); err == nil {
			lang = v
		} else if !errors.Is(err, prefs.ErrNotFound) {
			lang = ""
		}
	}
	if lang == "" {
		return deps.DefaultLang
	}
	if deps.Knowledge != nil && !deps.Knowledge.Has(lang) {
		return deps.DefaultLang
	}
	return lang
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
