package core

import (
	"testing"
	"time"
)

func buildSnapshot() *Snapshot {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	users := []*User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}, {ID: "u4"}}
	contents := []*Content{
		{ID: "c1", Popularity: 0.5},
		{ID: "c2", Popularity: 0.9},
		{ID: "c3", Popularity: 0.9},
	}
	events := []*Event{
		{ID: "e1", UserID: "u1", ContentID: "c1", Type: EventView, Timestamp: now},
		{ID: "e2", UserID: "u1", ContentID: "c2", Type: EventComplete, Timestamp: now},
		{ID: "e3", UserID: "u2", ContentID: "c1", Type: EventLike, Timestamp: now},
		{ID: "e4", UserID: "u2", ContentID: "c2", Type: EventView, Timestamp: now},
		{ID: "e5", UserID: "u3", ContentID: "c1", Type: EventView, Timestamp: now},
		// bookmark 不算交互，不进 seen 集合
		{ID: "e6", UserID: "u4", ContentID: "c1", Type: EventBookmark, Timestamp: now},
	}
	return NewSnapshot(now, users, contents, events)
}

func TestSnapshotSeenAndCompleted(t *testing.T) {
	snap := buildSnapshot()

	if !snap.HasCompleted("u1", "c2") {
		t.Error("u1 completed c2 but HasCompleted is false")
	}
	if snap.HasCompleted("u1", "c1") {
		t.Error("view counted as completion")
	}
	if snap.HasCompleted("u2", "c2") {
		t.Error("completion leaked across users")
	}

	seen := snap.Seen("u4")
	if len(seen) != 0 {
		t.Errorf("bookmark counted as interaction: %v", seen)
	}
}

func TestSnapshotSimilarUsers(t *testing.T) {
	snap := buildSnapshot()

	// u2 与 u1 共同交互 c1+c2（2 条），u3 只有 c1（1 条）
	got := snap.SimilarUsers("u1", 10)
	want := []string{"u2", "u3"}
	if len(got) != len(want) {
		t.Fatalf("SimilarUsers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SimilarUsers = %v, want %v", got, want)
			break
		}
	}

	if got := snap.SimilarUsers("u1", 1); len(got) != 1 || got[0] != "u2" {
		t.Errorf("limit 1 gave %v, want [u2]", got)
	}
	if got := snap.SimilarUsers("nobody", 10); len(got) != 0 {
		t.Errorf("user without history gave %v, want empty", got)
	}
}

func TestSnapshotPopularOrder(t *testing.T) {
	snap := buildSnapshot()
	got := snap.PopularOrder()
	// 热度相同（c2/c3 均 0.9）按 ID 升序破平
	want := []string{"c2", "c3", "c1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PopularOrder = %v, want %v", got, want)
		}
	}
}

func TestSnapshotLastEventAtIgnoresArrivalOrder(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := NewSnapshot(now, nil, []*Content{{ID: "c1"}}, []*Event{
		{ID: "e1", UserID: "u1", ContentID: "c1", Type: EventView, Timestamp: now.Add(-time.Hour)},
		{ID: "e2", UserID: "u1", ContentID: "c1", Type: EventView, Timestamp: now.Add(-48 * time.Hour)},
	})
	last, ok := snap.LastEventAt("c1")
	if !ok || !last.Equal(now.Add(-time.Hour)) {
		t.Errorf("LastEventAt = %v %v, want %v", last, ok, now.Add(-time.Hour))
	}
}
