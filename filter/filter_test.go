package filter

import (
	"context"
	"testing"
	"time"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pkg/utils"
)

func completedSnapshot() *core.Snapshot {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return core.NewSnapshot(now,
		[]*core.User{{ID: "u1"}},
		[]*core.Content{{ID: "c1"}, {ID: "c2"}},
		[]*core.Event{
			{ID: "e1", UserID: "u1", ContentID: "c1", Type: core.EventComplete, Timestamp: now},
			{ID: "e2", UserID: "u1", ContentID: "c2", Type: core.EventView, Timestamp: now},
		})
}

func TestCompletedFilter(t *testing.T) {
	snap := completedSnapshot()
	rctx := &core.RecommendContext{UserID: "u1", Snap: snap}
	f := &Completed{}

	tests := []struct {
		itemID string
		want   bool
	}{
		{"c1", true},  // 有 complete 事件
		{"c2", false}, // 只 view 过
		{"c3", false}, // 没有任何事件
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(tt.itemID))
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.itemID, got, tt.want)
		}
	}
}

func TestCompletedFilterIsolatedPerUser(t *testing.T) {
	snap := completedSnapshot()
	// 其他用户的 complete 不影响当前用户
	rctx := &core.RecommendContext{UserID: "u2", Snap: snap}
	got, err := (&Completed{}).ShouldFilter(context.Background(), rctx, core.NewItem("c1"))
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("another user's completion filtered this user's candidate")
	}
}

func TestBlacklistFilter(t *testing.T) {
	f := &Blacklist{ContentIDs: []string{"banned"}}
	rctx := &core.RecommendContext{UserID: "u1"}

	if got, _ := f.ShouldFilter(context.Background(), rctx, core.NewItem("banned")); !got {
		t.Error("blacklisted item passed")
	}
	if got, _ := f.ShouldFilter(context.Background(), rctx, core.NewItem("ok")); got {
		t.Error("clean item filtered")
	}
}

func TestRuleFilter(t *testing.T) {
	t.Run("matching expression filters", func(t *testing.T) {
		f, err := NewRule(`item.signals.popularity < 0.05 && label.recall_source == "hot"`)
		if err != nil {
			t.Fatal(err)
		}
		item := core.NewItem("c1")
		item.PutSignal("popularity", 0.01)
		item.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})

		got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{}, item)
		if err != nil {
			t.Fatal(err)
		}
		if !got {
			t.Error("matching item not filtered")
		}

		item2 := core.NewItem("c2")
		item2.PutSignal("popularity", 0.9)
		item2.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		got, err = f.ShouldFilter(context.Background(), &core.RecommendContext{}, item2)
		if err != nil {
			t.Fatal(err)
		}
		if got {
			t.Error("non-matching item filtered")
		}
	})

	t.Run("empty expression never filters", func(t *testing.T) {
		f, err := NewRule("")
		if err != nil {
			t.Fatal(err)
		}
		got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{}, core.NewItem("c1"))
		if err != nil {
			t.Fatal(err)
		}
		if got {
			t.Error("empty rule filtered an item")
		}
	})

	t.Run("invalid expression fails at construction", func(t *testing.T) {
		if _, err := NewRule("((("); err == nil {
			t.Error("bad expression compiled")
		}
	})
}

func TestFilterNodeLabelsDropped(t *testing.T) {
	snap := completedSnapshot()
	rctx := &core.RecommendContext{UserID: "u1", Snap: snap}
	node := &Node{Filters: []Filter{&Completed{}}}

	items := []*core.Item{core.NewItem("c1"), core.NewItem("c2")}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "c2" {
		t.Fatalf("survivors = %v", itemIDsOf(out))
	}
	// 被过滤的 item 带 filtered 标签，注明是谁滤掉的
	lbl, ok := items[0].Labels["filtered"]
	if !ok || lbl.Source != "filter.completed" {
		t.Errorf("filtered label missing or wrong: %+v", items[0].Labels)
	}
}

func itemIDsOf(items []*core.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
