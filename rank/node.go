package rank

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pipeline"
	"github.com/jayanthansenthilkumar/Dhiksha/pkg/utils"
)

// ScoreNode 是打分 Node：逐候选计算五路信号并混成最终分数。
// - 写入 item.Signals（五个分量）与 item.Score
// - 写入 item.Reasons 与 labels：strategy
// - 快照里查不到元信息的候选（次级缺失）跳过并记录，不致命
//
// 相似用户集合一次请求只算一次，逐候选复用。
type ScoreNode struct {
	Scorer  *Scorer
	Blender *Blender
	Logger  zerolog.Logger
}

func NewScoreNode(scorer *Scorer, blender *Blender, logger zerolog.Logger) *ScoreNode {
	return &ScoreNode{
		Scorer:  scorer,
		Blender: blender,
		Logger:  logger.With().Str("node", "rank.score").Logger(),
	}
}

func (n *ScoreNode) Name() string        { return "rank.score" }
func (n *ScoreNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ScoreNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Scorer == nil || n.Blender == nil || len(items) == 0 {
		return items, nil
	}
	if rctx == nil || rctx.Snap == nil || rctx.User == nil {
		return items, nil
	}

	snap := rctx.Snap
	similar := snap.SimilarUsers(rctx.UserID, n.Scorer.Config().SimilarUserLimit)

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		content := snap.Content(it.ID)
		if content == nil {
			n.Logger.Warn().Str("content_id", it.ID).Msg("candidate without metadata, skipped")
			continue
		}

		v := n.Scorer.Score(rctx.User, content, snap, similar, rctx.Now)
		it.PutSignal(SignalInterest, v.Interest)
		it.PutSignal(SignalDifficulty, v.Difficulty)
		it.PutSignal(SignalPopularity, v.Popularity)
		it.PutSignal(SignalCollaborative, v.Collaborative)
		it.PutSignal(SignalRecency, v.Recency)

		score, reasons := n.Blender.Blend(v, rctx.User, content, rctx)
		it.Score = score
		for _, tag := range reasons {
			it.AddReason(tag)
		}
		it.PutLabel("strategy", utils.Label{Value: string(rctx.Strategy), Source: "rank"})
		out = append(out, it)
	}
	return out, nil
}
