package index_test

import (
	"context"
	"testing"
	"time"

	"embyscan/internal/index"
	"embyscan/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Files != 0 || stats.Pending != 0 {
		t.Fatalf("expected empty index, got %+v", stats)
	}
	if stats.LastTriggeredAt != nil {
		t.Fatal("expected no trigger timestamp on fresh database")
	}
}

func TestMarkPendingReplacesKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := store.MarkPending(ctx, "/media/a.mkv", index.KindCreated); err != nil {
		t.Fatalf("MarkPending failed: %v", err)
	}
	if err := store.MarkPending(ctx, "/media/a.mkv", index.KindDeleted); err != nil {
		t.Fatalf("MarkPending failed: %v", err)
	}

	pending, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending row, got %d", len(pending))
	}
	if pending[0].Kind != index.KindDeleted {
		t.Fatalf("expected later kind to win, got %s", pending[0].Kind)
	}
}

func TestCommitTriggerAppliesChangesAtomically(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	modified := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SeedFiles(ctx, "/media", map[string]time.Time{"/media/old.mkv": modified}); err != nil {
		t.Fatalf("SeedFiles failed: %v", err)
	}
	if err := store.MarkPending(ctx, "/media/new.mkv", index.KindCreated); err != nil {
		t.Fatalf("MarkPending failed: %v", err)
	}
	if err := store.MarkPending(ctx, "/media/old.mkv", index.KindDeleted); err != nil {
		t.Fatalf("MarkPending failed: %v", err)
	}

	changes, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	err = store.CommitTrigger(ctx, changes,
		map[string]time.Time{"/media/new.mkv": modified},
		map[string]string{"/media/new.mkv": "/media"})
	if err != nil {
		t.Fatalf("CommitTrigger failed: %v", err)
	}

	pending, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected pending cleared after trigger, got %d rows", len(pending))
	}

	if rec, err := store.Lookup(ctx, "/media/old.mkv"); err != nil || rec != nil {
		t.Fatalf("expected deleted path removed from index, rec=%v err=%v", rec, err)
	}
	rec, err := store.Lookup(ctx, "/media/new.mkv")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if rec == nil || !rec.ModifiedAt.Equal(modified) {
		t.Fatalf("expected created path tracked with mod time, got %+v", rec)
	}

	last, err := store.LastTriggeredAt(ctx)
	if err != nil {
		t.Fatalf("LastTriggeredAt failed: %v", err)
	}
	if last == nil {
		t.Fatal("expected trigger timestamp recorded")
	}
}

func TestPendingSurvivesReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := store.MarkPending(ctx, "/media/a.mkv", index.KindCreated); err != nil {
		t.Fatalf("MarkPending failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	pending, err := reopened.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Path != "/media/a.mkv" {
		t.Fatalf("expected pending row to survive restart, got %+v", pending)
	}
}

func TestSnapshotScopedToRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	if err := store.SeedFiles(ctx, "/media/movies", map[string]time.Time{"/media/movies/a.mkv": now}); err != nil {
		t.Fatalf("SeedFiles failed: %v", err)
	}
	if err := store.SeedFiles(ctx, "/media/music", map[string]time.Time{"/media/music/b.flac": now}); err != nil {
		t.Fatalf("SeedFiles failed: %v", err)
	}

	snapshot, err := store.Snapshot(ctx, "/media/movies")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snapshot) != 1 {
		t.Fatalf("expected snapshot scoped to root, got %v", snapshot)
	}
	if ts, ok := snapshot["/media/movies/a.mkv"]; !ok || !ts.Equal(now) {
		t.Fatalf("unexpected snapshot contents: %v", snapshot)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	now := time.Now().UTC()
	if err := store.SeedFiles(ctx, "/media", map[string]time.Time{"/media/a.mkv": now, "/media/b.mkv": now}); err != nil {
		t.Fatalf("SeedFiles failed: %v", err)
	}
	if err := store.MarkPending(ctx, "/media/c.mkv", index.KindCreated); err != nil {
		t.Fatalf("MarkPending failed: %v", err)
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 file rows removed, got %d", removed)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Files != 0 || stats.Pending != 0 || stats.LastTriggeredAt != nil {
		t.Fatalf("expected empty index after clear, got %+v", stats)
	}
}

func TestCheckHealthReportsIntegrity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if health.SchemaVersion != 1 {
		t.Fatalf("unexpected schema version %d", health.SchemaVersion)
	}
	if health.IntegrityCheck != "ok" {
		t.Fatalf("unexpected integrity check result %q", health.IntegrityCheck)
	}
}
