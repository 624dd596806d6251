// Package pipeline sequences the chat answer-resolution stages: the
// deterministic matcher, the optional backend proxy, and the generative
// fallback. The first stage producing a non-empty answer wins.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/kenwebdev/folio/internal/knowledge"
	"github.com/kenwebdev/folio/internal/session"
)

// Stage records which pipeline stage resolved (or failed) a turn.
type Stage string

const (
	StageMatched    Stage = "matched"
	StageProxy      Stage = "proxy"
	StageGenerative Stage = "generative"
	StageFailed     Stage = "failed"
)

// Matcher is the deterministic stage contract.
type Matcher interface {
	Match(question, lang string, doc *knowledge.Document) (string, bool)
}

// ProxyClient is the optional backend stage contract.
type ProxyClient interface {
	Ask(ctx context.Context, message, lang string) (string, error)
}

// Generator is the generative fallback contract.
type Generator interface {
	Generate(ctx context.Context, question, lang string, rec knowledge.Record) (string, error)
}

// Metadata captures diagnostics for one resolved turn.
type Metadata struct {
	Stage      Stage
	Lang       string
	DurationMs int64
	Err        error
}

// Resolver runs the three stages in order. Stages are strictly sequential:
// the proxy is only consulted when the matcher yields nothing, and the
// generative client only when the proxy yields nothing. Turns share no
// mutable state beyond the session transcript.
type Resolver struct {
	doc     *knowledge.Document
	matcher Matcher
	proxy   ProxyClient // nil when no backend is configured
	gen     Generator
}

// NewResolver wires the pipeline. doc may be nil (knowledge missing or
// unparseable); the matcher stage is then skipped and the generative prompt
// is grounded on an empty record. proxy may be nil.
func NewResolver(doc *knowledge.Document, m Matcher, p ProxyClient, g Generator) *Resolver {
	return &Resolver{doc: doc, matcher: m, proxy: p, gen: g}
}

// Resolve answers a single question. The returned error is non-nil only when
// the generative stage fails (missing credential or request failure), which
// is terminal for the turn. Earlier stages never propagate errors; their
// failures are logged and the pipeline moves on.
func (r *Resolver) Resolve(ctx context.Context, question, lang string) (answer string, meta Metadata, err error) {
	start := time.Now()
	meta = Metadata{Lang: r.normalizeLang(lang)}
	defer func() {
		meta.DurationMs = time.Since(start).Milliseconds()
	}()

	lang = meta.Lang

	// 1. Deterministic matcher.
	if r.doc != nil && r.matcher != nil {
		if answer, ok := r.matcher.Match(question, lang, r.doc); ok {
			meta.Stage = StageMatched
			return answer, meta, nil
		}
	}

	// 2. Backend proxy, opportunistic.
	if r.proxy != nil {
		reply, err := r.proxy.Ask(ctx, question, lang)
		switch {
		case err != nil:
			slog.Warn("proxy stage failed, continuing to generative fallback", "error", err)
		case reply != "":
			meta.Stage = StageProxy
			return reply, meta, nil
		}
	}

	// 3. Generative fallback. Its answer is final even when it is a polite
	// "no information" message.
	rec, _ := r.resolveRecord(lang)
	answer, err = r.gen.Generate(ctx, question, lang, rec)
	if err != nil {
		meta.Stage = StageFailed
		meta.Err = err
		slog.Error("generative stage failed", "error", err, "lang", lang)
		return "", meta, err
	}
	meta.Stage = StageGenerative
	return answer, meta, nil
}

// Ask runs one full turn against a session: append the question and the
// pending placeholder, resolve, then replace the placeholder with the answer
// or with the fixed localized apology on terminal failure. The turn is never
// retried; the session is left ready for the next independent turn.
func (r *Resolver) Ask(ctx context.Context, sess *session.Session, question string) (string, Metadata, error) {
	if err := sess.Begin(question); err != nil {
		return "", Metadata{}, err
	}

	answer, meta, err := r.Resolve(ctx, question, sess.Lang)
	if err != nil {
		answer = Apology(meta.Lang)
	}
	sess.Resolve(answer)
	return answer, meta, nil
}

// normalizeLang validates the requested language against the knowledge
// document, falling back to the default.
func (r *Resolver) normalizeLang(lang string) string {
	if lang == "" {
		return knowledge.DefaultLang
	}
	if r.doc != nil && !r.doc.Has(lang) {
		return knowledge.DefaultLang
	}
	return lang
}

func (r *Resolver) resolveRecord(lang string) (knowledge.Record, bool) {
	if r.doc == nil {
		return knowledge.Record{}, false
	}
	return r.doc.Resolve(lang)
}
