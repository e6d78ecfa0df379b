package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

func openTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRoundTrip(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	user := &core.User{
		ID: "u1", Name: "One", Email: "one@example.com",
		Cohort: core.CohortBeginner, SkillLevel: core.SkillNovice,
		Interests: []string{"python", "ai"},
		CreatedAt: ts,
	}
	content := &core.Content{
		ID: "c1", Title: "Intro", Description: "desc",
		Type: core.ContentCourse, Difficulty: core.DifficultyBeginner,
		Tags: []string{"python"}, DurationMinutes: 30, Popularity: 0.4,
		CreatedAt: ts,
	}
	if err := repo.InsertUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertContent(ctx, content); err != nil {
		t.Fatal(err)
	}
	if err := repo.AppendEvent(ctx, &core.Event{
		ID: "e1", UserID: "u1", ContentID: "c1",
		Type: core.EventQuizScore, Value: 92, SessionID: "s1", Timestamp: ts,
	}); err != nil {
		t.Fatal(err)
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	u := snap.User("u1")
	if u == nil || u.SkillLevel != core.SkillNovice || len(u.Interests) != 2 || u.Interests[1] != "ai" {
		t.Errorf("user round trip broken: %+v", u)
	}
	c := snap.Content("c1")
	if c == nil || c.Popularity != 0.4 || len(c.Tags) != 1 {
		t.Errorf("content round trip broken: %+v", c)
	}
	if snap.EventCount() != 1 {
		t.Fatalf("EventCount = %d, want 1", snap.EventCount())
	}
	ev := snap.Events()[0]
	if ev.Value != 92 || !ev.Timestamp.Equal(ts) {
		t.Errorf("event round trip broken: %+v", ev)
	}
}

func TestSQLiteUpdates(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.InsertUser(ctx, &core.User{ID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertContent(ctx, &core.Content{ID: "c1", Title: "T"}); err != nil {
		t.Fatal(err)
	}

	if err := repo.UpdateUserLastActive(ctx, "u1", ts); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateUserLastActive(ctx, "nobody", ts); !core.IsUserNotFound(err) {
		t.Errorf("unknown user gave %v, want USER_NOT_FOUND", err)
	}
	if err := repo.UpdateContentPopularity(ctx, "c1", 0.7); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateContentPopularity(ctx, "ghost", 0.7); !core.IsNotFound(err) {
		t.Errorf("unknown content gave %v, want NOT_FOUND", err)
	}

	snap, _ := repo.Snapshot(ctx)
	if !snap.User("u1").LastActive.Equal(ts) {
		t.Errorf("LastActive = %v, want %v", snap.User("u1").LastActive, ts)
	}
	if snap.Content("c1").Popularity != 0.7 {
		t.Errorf("Popularity = %v, want 0.7", snap.Content("c1").Popularity)
	}
}

func TestSQLiteAppendLogBatch(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	entries := []*core.LogEntry{
		{ID: "l1", UserID: "u1", ContentID: "c1", Score: 0.9, Strategy: core.StrategyHybrid,
			ModelVersion: "v2.0.0", ReasonTags: []string{"python", "ai"}, Timestamp: time.Now()},
		{ID: "l2", UserID: "u1", ContentID: "c2", Score: 0.8, Strategy: core.StrategyHybrid,
			ModelVersion: "v2.0.0", Timestamp: time.Now()},
	}
	if err := repo.AppendLog(ctx, entries); err != nil {
		t.Fatal(err)
	}
	// 同一批再次写入主键冲突，整批失败
	if err := repo.AppendLog(ctx, entries); err == nil {
		t.Error("duplicate batch succeeded")
	}
}

func TestSQLiteSeedIdempotent(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := SeedSQLite(ctx, repo, now); err != nil {
		t.Fatal(err)
	}
	n, err := repo.UserCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 100 {
		t.Fatalf("UserCount = %d, want 100", n)
	}
	// 再跑一次不重复装载
	if err := SeedSQLite(ctx, repo, now); err != nil {
		t.Fatal(err)
	}
	if n, _ := repo.UserCount(ctx); n != 100 {
		t.Errorf("second seed changed UserCount to %d", n)
	}
}

func TestSeedDataDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	u1, c1, e1 := SeedData(now)
	u2, c2, e2 := SeedData(now)
	if len(u1) != 100 || len(c1) != 200 || len(e1) != 5000 {
		t.Fatalf("sizes = %d/%d/%d, want 100/200/5000", len(u1), len(c1), len(e1))
	}
	for i := range u1 {
		if u1[i].ID != u2[i].ID || u1[i].SkillLevel != u2[i].SkillLevel || len(u1[i].Interests) != len(u2[i].Interests) {
			t.Fatalf("user %d differs between generations", i)
		}
	}
	for i := range e1 {
		if e1[i].UserID != e2[i].UserID || e1[i].ContentID != e2[i].ContentID || e1[i].Type != e2[i].Type {
			t.Fatalf("event %d differs between generations", i)
		}
	}
	for i := range c1 {
		if c1[i].Popularity != c2[i].Popularity {
			t.Fatalf("content %d popularity differs", i)
		}
	}
}
