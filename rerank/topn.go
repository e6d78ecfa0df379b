package rerank

import (
	"context"
	"sort"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pipeline"
)

// TopN 是确定性排序 + 截断节点，通常作为链路的最后一环。
//
// 排序规则：分数降序，分数相同按内容 ID 升序破平——相同输入必然产生
// 相同的输出顺序，不依赖候选的到达顺序。
//
// 截断到请求的 k（rctx.K），k<=0 时退回 N 字段；存活候选不足 k 时
// 返回短列表而不是凑数，调用方必须容忍。
type TopN struct {
	// N 是 rctx.K 缺失时的保底截断值；两者都 <=0 则不截断
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopN) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})

	limit := 0
	if rctx != nil && rctx.K > 0 {
		limit = rctx.K
	} else if n.N > 0 {
		limit = n.N
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
