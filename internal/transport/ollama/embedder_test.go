package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/triage/internal/domain"
)

func TestNewEmbedder_RequiresModel(t *testing.T) {
	if _, err := NewEmbedder(&Config{}); err == nil {
		t.Fatal("expected error without model")
	}
}

func TestNewEmbedder_Defaults(t *testing.T) {
	emb, err := NewEmbedder(&Config{Model: "nomic-embed-text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.serverURL != DefaultServerURL || emb.provider != "ollama" {
		t.Errorf("defaults = %q/%q", emb.serverURL, emb.provider)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	emb, err := NewEmbedder(&Config{ServerURL: server.URL, Model: "nomic-embed-text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = emb.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"version":"0.5.7"}`))
	}))
	defer server.Close()

	emb, err := NewEmbedder(&Config{ServerURL: server.URL, Model: "nomic-embed-text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	healthy = false
	if err := emb.HealthCheck(context.Background()); !errors.Is(err, errUnhealthy) {
		t.Errorf("expected errUnhealthy, got %v", err)
	}
}
