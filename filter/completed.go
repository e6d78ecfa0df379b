package filter

import (
	"context"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// Completed 过滤掉用户已经完成过的内容。
//
// 这是推荐结果的硬不变量：请求时间点之前有 complete 事件的内容
// 绝不出现在该用户的结果里。判断基于本次调用的快照，
// 与调用并发写入的新事件可见与否不影响正确性。
type Completed struct{}

func (f *Completed) Name() string { return "filter.completed" }

func (f *Completed) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || rctx.Snap == nil || rctx.UserID == "" {
		return false, nil
	}
	return rctx.Snap.HasCompleted(rctx.UserID, item.ID), nil
}
