package emby_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"embyscan/internal/emby"
	"embyscan/internal/testsupport"
)

func TestItemsUpdatedSendsTokenAndPayload(t *testing.T) {
	var gotToken string
	var gotPayload struct {
		Updates []emby.ItemUpdate `json:"Updates"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emby/Library/Media/Updated" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotToken = r.Header.Get("X-Emby-Token")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEmby(server.URL, "secret"))
	client := emby.NewClient(cfg)

	updates := []emby.ItemUpdate{
		{Path: "/media/a.mkv", UpdateType: "Created"},
		{Path: "/media/b.mkv", UpdateType: "Deleted"},
	}
	if err := client.ItemsUpdated(context.Background(), updates); err != nil {
		t.Fatalf("ItemsUpdated failed: %v", err)
	}
	if gotToken != "secret" {
		t.Fatalf("expected X-Emby-Token header, got %q", gotToken)
	}
	if len(gotPayload.Updates) != 2 || gotPayload.Updates[1].UpdateType != "Deleted" {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
}

func TestItemsUpdatedSkipsEmptyBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEmby("http://127.0.0.1:1", "secret"))
	client := emby.NewClient(cfg)

	// No request must be issued; the unreachable URL would fail otherwise.
	if err := client.ItemsUpdated(context.Background(), nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
}

func TestRefreshLibraryUsesAPIKeyQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emby/Library/Refresh" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("api_key")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEmby(server.URL, "secret"))
	client := emby.NewClient(cfg)

	if err := client.RefreshLibrary(context.Background()); err != nil {
		t.Fatalf("RefreshLibrary failed: %v", err)
	}
	if gotQuery != "secret" {
		t.Fatalf("expected api_key query parameter, got %q", gotQuery)
	}
}

func TestServerErrorsSurfaceStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithEmby(server.URL, "secret"))
	client := emby.NewClient(cfg)

	err := client.Ping(context.Background())
	var statusErr *emby.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status code %d", statusErr.Code)
	}
}
