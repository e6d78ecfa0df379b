package recall

import (
	"context"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pkg/utils"
)

// DefaultHotKey 是热门排行在 KV 存储中的默认 key。
const DefaultHotKey = "hot:content"

// Hot 是热门召回源，兼作冷启动兜底。
// - 如果配置了 KeyValueStore，优先使用 ZRange（有序集合，按热度排序）
// - 否则退回快照中按 Popularity 排序的内容列表
// - KV 中可能存在快照里已不存在的内容 ID（次级缺失），直接跳过
type Hot struct {
	Store core.KeyValueStore
	Key   string // 存储 key，默认 DefaultHotKey
	TopN  int    // 取前 N 个，<=0 表示不限制
}

func (r *Hot) Name() string { return "recall.hot" }

func (r *Hot) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Snap == nil {
		return nil, nil
	}

	var ids []string

	if r.Store != nil {
		key := r.Key
		if key == "" {
			key = DefaultHotKey
		}
		stop := int64(-1)
		if r.TopN > 0 {
			stop = int64(r.TopN) - 1
		}
		members, err := r.Store.ZRange(ctx, key, 0, stop)
		if err == nil && len(members) > 0 {
			ids = members
		}
		// Store 出错或为空时静默退回快照排序，召回源永不让请求失败
	}

	if len(ids) == 0 {
		ids = rctx.Snap.PopularOrder()
		if r.TopN > 0 && len(ids) > r.TopN {
			ids = ids[:r.TopN]
		}
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		if rctx.Snap.Content(id) == nil {
			continue
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
