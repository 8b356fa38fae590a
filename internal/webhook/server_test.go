package webhook

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"embyscan/internal/notify"
	"embyscan/internal/testsupport"
)

// recordingNotifier captures forwarded events. The embedded interface
// is left nil; the server only ever calls NotifyLibraryEvent.
type recordingNotifier struct {
	notify.Service
	mu     sync.Mutex
	events []notify.LibraryEvent
}

func (r *recordingNotifier) NotifyLibraryEvent(_ context.Context, event notify.LibraryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) recorded() []notify.LibraryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.LibraryEvent(nil), r.events...)
}

func TestWebhookForwardsEvent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	notifier := &recordingNotifier{}
	server := NewServer(cfg, notifier, nil)

	body := `{"Event":"playback.start","Title":"Avatar started playing"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	events := notifier.recorded()
	if len(events) != 1 || events[0].Event != "playback.start" {
		t.Fatalf("expected forwarded playback event, got %+v", events)
	}
}

func TestWebhookStartReportsBindFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer listener.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Webhook.Bind = listener.Addr().String()
	server := NewServer(cfg, &recordingNotifier{}, nil)

	if err := server.Start(); err == nil {
		t.Cleanup(func() { _ = server.Stop(context.Background()) })
		t.Fatalf("expected start on occupied bind %s to fail", cfg.Webhook.Bind)
	}
}

func TestWebhookStartAndStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Webhook.Bind = "127.0.0.1:0"
	server := NewServer(cfg, &recordingNotifier{}, nil)

	if err := server.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := server.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestWebhookRejectsBadToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Webhook.Token = "secret"
	notifier := &recordingNotifier{}
	server := NewServer(cfg, notifier, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"Event":"playback.start"}`))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"Event":"playback.start"}`))
	req.Header.Set("X-Webhook-Token", "secret")
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestWebhookRejectsInvalidPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	server := NewServer(cfg, &recordingNotifier{}, nil)

	for _, body := range []string{"not json", `{"Title":"no event"}`} {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", body, rec.Code)
		}
	}
}

func TestWebhookHealthz(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	server := NewServer(cfg, &recordingNotifier{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCoalescerLastPayloadWins(t *testing.T) {
	var mu sync.Mutex
	var delivered []notify.LibraryEvent
	c := newCoalescer(30*time.Millisecond, func(event notify.LibraryEvent) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, event)
	})

	c.Offer(notify.LibraryEvent{Event: "library.new", ItemID: "42", Title: "Partial metadata"})
	c.Offer(notify.LibraryEvent{Event: "library.new", ItemID: "42", Title: "Full metadata"})

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(delivered)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("coalescer never delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Fatalf("expected one delivery, got %d", len(delivered))
	}
	if delivered[0].Title != "Full metadata" {
		t.Fatalf("expected last payload to win, got %q", delivered[0].Title)
	}
}

func TestCoalescerStopFlushesQueued(t *testing.T) {
	var delivered []notify.LibraryEvent
	c := newCoalescer(time.Hour, func(event notify.LibraryEvent) {
		delivered = append(delivered, event)
	})

	c.Offer(notify.LibraryEvent{Event: "library.new", ItemID: "1", Title: "Movie"})
	c.Stop()

	if len(delivered) != 1 {
		t.Fatalf("expected stop to flush queued event, got %d", len(delivered))
	}
}

func TestParsePayloadEpisodeFields(t *testing.T) {
	body := `{
		"Event": "item.markplayed",
		"Item": {
			"Id": "99",
			"Name": "Pilot",
			"Type": "Episode",
			"SeriesName": "Severance",
			"SeasonName": "Season 1",
			"IndexNumber": 1
		}
	}`
	event, err := parsePayload([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.SeriesName != "Severance" || event.EpisodeNumber != 1 || event.ItemType != "Episode" {
		t.Fatalf("unexpected event %+v", event)
	}
}
