package recall

import (
	"context"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pkg/utils"
)

// InterestRecall 是基于内容的召回臂（Content-Based）。
//
// 入选条件（满足其一）：
//   - 内容标签与用户兴趣标签有交集
//   - 内容难度与用户技能对应难度相差不超过一级
//
// 用户没有兴趣画像时直接返回空：冷启动交给热门兜底，而不是把
// 全量内容按难度灌进候选集。
type InterestRecall struct{}

func (r *InterestRecall) Name() string { return "recall.interest" }

func (r *InterestRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.User == nil || rctx.Snap == nil {
		return nil, nil
	}
	user := rctx.User
	if len(user.Interests) == 0 {
		return nil, nil
	}

	preferred := user.PreferredDifficulty()
	out := make([]*core.Item, 0, 64)
	for _, id := range rctx.Snap.ContentIDs() {
		c := rctx.Snap.Content(id)
		if c == nil {
			continue
		}
		match := false
		for _, tag := range c.Tags {
			if user.HasInterest(tag) {
				match = true
				break
			}
		}
		if !match && core.DifficultyDistance(preferred, c.Difficulty) > 1 {
			continue
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "interest", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
