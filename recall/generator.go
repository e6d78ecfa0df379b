package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pipeline"
)

// DefaultCandidateMultiplier 是候选集下限相对请求 k 的倍数。
const DefaultCandidateMultiplier = 3

// Generator 是候选生成 Node：并发执行多个召回臂，合并去重，
// 再用热门兜底补足到 k*CandidateMultiplier，保证打分阶段永远有足够候选
// （包括没有任何历史的新用户）。
//
// 约束：
//   - 输出语义上是集合：重复 ID 折叠（保留先到的 labels 并 merge）
//   - 永不返回错误：单个召回臂失败只影响它自己的贡献
//   - 合并按 Sources 顺序进行，fan-out 并发不影响输出确定性
type Generator struct {
	Sources  []Source
	Backstop *Hot // 热门兜底；为 nil 时直接用快照热度排序

	// CandidateMultiplier 候选下限倍数，<=0 时用默认值 3
	CandidateMultiplier int

	// Timeout 单个召回臂的超时时间，0 表示不限制
	Timeout time.Duration
}

func (n *Generator) Name() string        { return "recall.candidates" }
func (n *Generator) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Generator) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Snap == nil {
		return nil, nil
	}

	// 并发 fan-out；结果按源下标落位，合并顺序与 Sources 声明一致
	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}
			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时该臂贡献为空，不中断其他召回臂
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = eg.Wait()

	// 按声明顺序合并去重，重复 ID merge labels
	seen := make(map[string]*core.Item)
	out := make([]*core.Item, 0, 64)
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if old, ok := seen[it.ID]; ok {
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}

	// 热门兜底：补足到 k * multiplier
	multiplier := n.CandidateMultiplier
	if multiplier <= 0 {
		multiplier = DefaultCandidateMultiplier
	}
	floor := rctx.K * multiplier
	if len(out) >= floor {
		return out, nil
	}

	backstop := n.Backstop
	if backstop == nil {
		backstop = &Hot{}
	}
	hotItems, _ := backstop.Recall(ctx, rctx)
	for _, it := range hotItems {
		if len(out) >= floor {
			break
		}
		if it == nil {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out, nil
}
