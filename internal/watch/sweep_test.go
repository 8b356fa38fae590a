package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"embyscan/internal/media"
	"embyscan/internal/testsupport"
)

type fakeSnapshots struct {
	byRoot map[string]map[string]time.Time
}

func (f *fakeSnapshots) Snapshot(_ context.Context, root string) (map[string]time.Time, error) {
	snap := f.byRoot[root]
	if snap == nil {
		snap = make(map[string]time.Time)
	}
	return snap, nil
}

type eventSink struct {
	events []Event
}

func (s *eventSink) accept(event Event) {
	s.events = append(s.events, event)
}

func (s *eventSink) find(path string) (Event, bool) {
	for _, event := range s.events {
		if event.Path == path {
			return event, true
		}
	}
	return Event{}, false
}

func TestSweepDetectsNewModifiedAndDeleted(t *testing.T) {
	root := t.TempDir()
	filter := media.NewFilter()

	fresh := testsupport.WriteMediaFile(t, root, "new.mkv", "data")
	changed := testsupport.WriteMediaFile(t, root, "changed.mp3", "data")
	unchanged := testsupport.WriteMediaFile(t, root, "steady.mp4", "data")

	oldTime := time.Now().Add(-time.Hour).Truncate(time.Second)
	testsupport.Touch(t, unchanged, oldTime)

	gone := filepath.Join(root, "gone.mkv")
	source := &fakeSnapshots{byRoot: map[string]map[string]time.Time{
		root: {
			changed:   oldTime,
			unchanged: oldTime,
			gone:      oldTime,
		},
	}}

	sink := &eventSink{}
	sweeper := NewSweeper([]string{root}, filter, source, sink.accept, 0, nil)
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(sink.events), sink.events)
	}
	if event, ok := sink.find(fresh); !ok || event.Kind != KindCreated {
		t.Fatalf("expected created event for %s, got %+v", fresh, event)
	}
	if event, ok := sink.find(changed); !ok || event.Kind != KindModified {
		t.Fatalf("expected modified event for %s, got %+v", changed, event)
	}
	if event, ok := sink.find(gone); !ok || event.Kind != KindDeleted {
		t.Fatalf("expected deleted event for %s, got %+v", gone, event)
	}
	if _, ok := sink.find(unchanged); ok {
		t.Fatalf("unchanged file should not produce an event")
	}
}

func TestSweepIgnoresNonMediaFiles(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteMediaFile(t, root, "notes.txt", "data")
	testsupport.WriteMediaFile(t, root, "movie.mkv.part", "data")

	sink := &eventSink{}
	sweeper := NewSweeper([]string{root}, media.NewFilter(), &fakeSnapshots{}, sink.accept, 0, nil)
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("expected no events for non-media files, got %+v", sink.events)
	}
}

func TestScanRootSkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	visible := testsupport.WriteMediaFile(t, root, "show.mkv", "data")
	hidden := filepath.Join(root, ".stash")
	testsupport.WriteMediaFile(t, hidden, "secret.mkv", "data")

	found, err := ScanRoot(root, media.NewFilter())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, ok := found[visible]; !ok {
		t.Fatalf("expected %s in scan results", visible)
	}
	if len(found) != 1 {
		t.Fatalf("expected hidden directory to be skipped, got %v", found)
	}
}
