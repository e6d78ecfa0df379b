package recall

import (
	"context"
	"sort"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pkg/utils"
)

// CollaborativeRecall 是协同召回臂（User-based CF 的工程化简化）。
//
// 核心思想："兴趣相似的用户，喜欢相似的内容"
//
// 流程：
//  1. 相似用户 = 与目标用户至少共同交互过一条内容的用户（view/complete/like）
//  2. 按共同内容数取 Top SimilarUserLimit 个
//  3. 输出这些用户交互过、而目标用户还没见过的内容
//
// 目标用户没有任何交互历史时返回空（冷启动交给热门兜底）。
type CollaborativeRecall struct {
	// SimilarUserLimit 参与召回的相似用户上限，<=0 时用默认值
	SimilarUserLimit int
}

// DefaultSimilarUserLimit 是相似用户集合的默认截断大小。
const DefaultSimilarUserLimit = 10

func (r *CollaborativeRecall) Name() string { return "recall.collaborative" }

func (r *CollaborativeRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Snap == nil || rctx.UserID == "" {
		return nil, nil
	}
	snap := rctx.Snap

	mine := snap.Seen(rctx.UserID)
	if len(mine) == 0 {
		return nil, nil
	}

	limit := r.SimilarUserLimit
	if limit <= 0 {
		limit = DefaultSimilarUserLimit
	}
	similar := snap.SimilarUsers(rctx.UserID, limit)
	if len(similar) == 0 {
		return nil, nil
	}

	// 收集相似用户看过、目标用户未见过的内容；排序保证输出确定
	candidates := make(map[string]struct{})
	for _, uid := range similar {
		for contentID := range snap.Seen(uid) {
			if _, seen := mine[contentID]; seen {
				continue
			}
			candidates[contentID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		if snap.Content(id) == nil {
			// 次级实体缺失：跳过，由上层记录
			continue
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "collaborative", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
