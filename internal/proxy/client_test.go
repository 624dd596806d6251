package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAsk_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q, want /chat", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Message != "who is ken" || req.Lang != "en" {
			t.Errorf("request = %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatResponse{Reply: "  Ken is a developer.  "})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	reply, err := c.Ask(context.Background(), "who is ken", "en")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply != "Ken is a developer." {
		t.Errorf("reply = %q, want trimmed backend reply", reply)
	}
}

func TestAsk_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Ask(context.Background(), "q", "th"); err == nil {
		t.Error("Ask succeeded on HTTP 500, want error")
	}
}

func TestAsk_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Ask(context.Background(), "q", "th"); err == nil {
		t.Error("Ask succeeded on malformed body, want error")
	}
}

func TestAsk_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Ask(context.Background(), "q", "th"); err == nil {
		t.Error("Ask succeeded against closed server, want error")
	}
}

func TestAsk_SingleAttempt(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.Ask(context.Background(), "q", "th")
	if calls != 1 {
		t.Errorf("backend called %d times, want exactly 1 (no retries)", calls)
	}
}
