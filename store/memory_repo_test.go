package store

import (
	"context"
	"testing"
	"time"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

func seededRepo() *MemoryRepository {
	repo := NewMemoryRepository()
	repo.Load(
		[]*core.User{{ID: "u1", Name: "One"}},
		[]*core.Content{{ID: "c1", Popularity: 0.1}},
		[]*core.Event{{ID: "e1", UserID: "u1", ContentID: "c1", Type: core.EventView, Timestamp: time.Now()}},
	)
	return repo
}

func TestMemoryRepositorySnapshotIsolation(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.EventCount() != 1 {
		t.Fatalf("EventCount = %d, want 1", snap.EventCount())
	}

	// 快照之后的写入不影响已取的快照
	if err := repo.AppendEvent(ctx, &core.Event{
		ID: "e2", UserID: "u1", ContentID: "c1", Type: core.EventLike, Timestamp: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateContentPopularity(ctx, "c1", 0.99); err != nil {
		t.Fatal(err)
	}

	if snap.EventCount() != 1 {
		t.Errorf("snapshot saw later event: EventCount = %d", snap.EventCount())
	}
	if snap.Content("c1").Popularity != 0.1 {
		t.Errorf("snapshot saw later popularity: %v", snap.Content("c1").Popularity)
	}

	snap2, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap2.EventCount() != 2 || snap2.Content("c1").Popularity != 0.99 {
		t.Error("new snapshot missing the writes")
	}
}

func TestMemoryRepositoryAppendLog(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()

	entries := []*core.LogEntry{
		{ID: "l1", UserID: "u1", ContentID: "c1", Score: 0.5},
		{ID: "l2", UserID: "u1", ContentID: "c1", Score: 0.4},
	}
	if err := repo.AppendLog(ctx, entries); err != nil {
		t.Fatal(err)
	}
	if got := len(repo.Logs()); got != 2 {
		t.Errorf("Logs = %d, want 2", got)
	}

	// 已取消的 ctx 不能写进一半
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := repo.AppendLog(cancelled, entries); err == nil {
		t.Error("cancelled context append did not fail")
	}
	if got := len(repo.Logs()); got != 2 {
		t.Errorf("partial write leaked: Logs = %d, want 2", got)
	}
}

func TestMemoryRepositoryUpdates(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.UpdateUserLastActive(ctx, "u1", ts); err != nil {
		t.Fatal(err)
	}
	snap, _ := repo.Snapshot(ctx)
	if !snap.User("u1").LastActive.Equal(ts) {
		t.Errorf("LastActive = %v, want %v", snap.User("u1").LastActive, ts)
	}

	if err := repo.UpdateUserLastActive(ctx, "nobody", ts); !core.IsUserNotFound(err) {
		t.Errorf("unknown user gave %v, want USER_NOT_FOUND", err)
	}
	if err := repo.UpdateContentPopularity(ctx, "nothing", 0.5); !core.IsNotFound(err) {
		t.Errorf("unknown content gave %v, want NOT_FOUND", err)
	}
}
