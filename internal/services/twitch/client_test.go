package twitch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipflow/internal/config"
	"clipflow/internal/services"
	"clipflow/internal/services/twitch"
)

func newTestClient(t *testing.T, handler http.Handler) (*twitch.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := twitch.NewClient(config.Twitch{
		ClientID:     "cid",
		ClientSecret: "secret",
		TokenURL:     server.URL + "/oauth2/token",
		APIBaseURL:   server.URL + "/helix",
	})
	return client, server
}

func TestAuthenticateCachesToken(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Fatalf("unexpected grant type %q", r.PostForm.Get("grant_type"))
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		token, err := client.Authenticate(ctx)
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if token != "tok-1" {
			t.Fatalf("unexpected token %q", token)
		}
	}
	if tokenCalls != 1 {
		t.Fatalf("expected 1 token call, got %d", tokenCalls)
	}
}

func TestResolveChannel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/helix/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-ID") != "cid" || r.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("missing auth headers: %v", r.Header)
		}
		if r.URL.Query().Get("login") == "someone" {
			json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{{"id": "42"}}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{}})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	id, err := client.ResolveChannel(ctx, "someone")
	if err != nil {
		t.Fatalf("ResolveChannel failed: %v", err)
	}
	if id != "42" {
		t.Fatalf("unexpected broadcaster id %q", id)
	}

	_, err = client.ResolveChannel(ctx, "nobody")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTopClipsSortsByViews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/helix/clips", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("broadcaster_id") != "42" {
			t.Fatalf("unexpected broadcaster query %q", r.URL.Query().Get("broadcaster_id"))
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"id": "c1", "view_count": 100, "title": "first"},
			{"id": "c2", "view_count": 500, "title": "second"},
			{"id": "c3", "view_count": 100, "title": "third"},
		}})
	})

	client, _ := newTestClient(t, mux)
	clips, err := client.ListTopClips(context.Background(), "42", 10)
	if err != nil {
		t.Fatalf("ListTopClips failed: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("expected 3 clips, got %d", len(clips))
	}
	if clips[0].ID != "c2" {
		t.Fatalf("expected most-viewed first, got %q", clips[0].ID)
	}
	// Stable sort keeps platform order for the tie between c1 and c3.
	if clips[1].ID != "c1" || clips[2].ID != "c3" {
		t.Fatalf("tie order not preserved: %q, %q", clips[1].ID, clips[2].ID)
	}
}

func TestListTopClipsEmptyIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/helix/clips", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	client, _ := newTestClient(t, mux)
	_, err := client.ListTopClips(context.Background(), "42", 10)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNon2xxIsNetworkError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid client", http.StatusForbidden)
	})

	client, _ := newTestClient(t, mux)
	_, err := client.Authenticate(context.Background())
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestAuthenticateWithoutCredentials(t *testing.T) {
	client := twitch.NewClient(config.Twitch{TokenURL: "http://127.0.0.1:0"})
	_, err := client.Authenticate(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
