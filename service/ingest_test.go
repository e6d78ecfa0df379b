package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/recall"
	"github.com/jayanthansenthilkumar/Dhiksha/store"
)

type recordingBroadcaster struct {
	messages []any
}

func (b *recordingBroadcaster) Broadcast(msg any) { b.messages = append(b.messages, msg) }

func TestLogEvent(t *testing.T) {
	repo := testRepo()
	kv := store.NewMemoryStore()
	defer kv.Close()
	bc := &recordingBroadcaster{}
	ing := NewIngestor(repo, kv, zerolog.Nop(), WithIngestBroadcaster(bc))
	ctx := context.Background()

	ev, err := ing.LogEvent(ctx, EventInput{
		UserID: "u1", ContentID: "c02", Type: core.EventLike, SessionID: "s1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.ID == "" {
		t.Error("event id not assigned")
	}

	snap, _ := repo.Snapshot(ctx)

	// 事件落库
	if got := len(snap.EventsByContent("c02")); got != 2 {
		t.Errorf("c02 events = %d, want 2", got)
	}
	// last_active 更新
	if snap.User("u1").LastActive.IsZero() {
		t.Error("last_active not updated")
	}
	// 热度 = min(0.01 * 事件总数, 1.0)：c02 现在有 2 条事件
	if got := snap.Content("c02").Popularity; got != 0.02 {
		t.Errorf("popularity = %v, want 0.02", got)
	}
	// 热门排行更新
	score, err := kv.ZScore(ctx, recall.DefaultHotKey, "c02")
	if err != nil {
		t.Fatal(err)
	}
	if score != 2 {
		t.Errorf("hot zset score = %v, want 2", score)
	}
	// 广播一条 event 消息
	if len(bc.messages) != 1 {
		t.Fatalf("broadcast messages = %d, want 1", len(bc.messages))
	}
	msg := bc.messages[0].(map[string]any)
	if msg["type"] != "event" || msg["content_id"] != "c02" {
		t.Errorf("broadcast message malformed: %v", msg)
	}
}

func TestLogEventPopularityCapped(t *testing.T) {
	repo := store.NewMemoryRepository()
	users := []*core.User{{ID: "u1"}}
	contents := []*core.Content{{ID: "c1", Title: "T"}}
	events := make([]*core.Event, 0, 150)
	for i := 0; i < 150; i++ {
		events = append(events, &core.Event{
			ID: fmt.Sprintf("e%d", i), UserID: "u1", ContentID: "c1", Type: core.EventView,
		})
	}
	repo.Load(users, contents, events)

	ing := NewIngestor(repo, nil, zerolog.Nop())
	if _, err := ing.LogEvent(context.Background(), EventInput{UserID: "u1", ContentID: "c1", Type: core.EventView}); err != nil {
		t.Fatal(err)
	}
	snap, _ := repo.Snapshot(context.Background())
	if got := snap.Content("c1").Popularity; got != 1.0 {
		t.Errorf("popularity = %v, want capped at 1.0", got)
	}
}

func TestLogEventValidation(t *testing.T) {
	ing := NewIngestor(testRepo(), nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := ing.LogEvent(ctx, EventInput{UserID: "ghost", ContentID: "c01", Type: core.EventView}); !core.IsUserNotFound(err) {
		t.Errorf("unknown user gave %v", err)
	}
	if _, err := ing.LogEvent(ctx, EventInput{UserID: "u1", ContentID: "ghost", Type: core.EventView}); !core.IsNotFound(err) {
		t.Errorf("unknown content gave %v", err)
	}
	_, err := ing.LogEvent(ctx, EventInput{UserID: "u1", ContentID: "c01", Type: core.EventType("dance")})
	if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeInvalidInput {
		t.Errorf("bad event type gave %v", err)
	}
}
