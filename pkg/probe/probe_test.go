package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !Reachable(context.Background(), srv.URL, 2*time.Second) {
		t.Error("Reachable() = false, want true for a live endpoint")
	}
}

func TestReachableUnauthorized(t *testing.T) {
	// Registries answer anonymous probes with 401; that still proves the
	// network path is usable
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if !Reachable(context.Background(), srv.URL, 2*time.Second) {
		t.Error("Reachable() = false, want true for 401 endpoint")
	}
}

func TestNotReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if Reachable(context.Background(), url, 1*time.Second) {
		t.Error("Reachable() = true, want false for a closed endpoint")
	}
}

func TestReachableBadEndpoint(t *testing.T) {
	if Reachable(context.Background(), "://not-a-url", 1*time.Second) {
		t.Error("Reachable() = true, want false for a malformed endpoint")
	}
}
