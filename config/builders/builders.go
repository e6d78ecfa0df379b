package builders

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayanthansenthilkumar/Dhiksha/config"
	"github.com/jayanthansenthilkumar/Dhiksha/filter"
	"github.com/jayanthansenthilkumar/Dhiksha/pipeline"
	"github.com/jayanthansenthilkumar/Dhiksha/pkg/conv"
	"github.com/jayanthansenthilkumar/Dhiksha/rank"
	"github.com/jayanthansenthilkumar/Dhiksha/recall"
	"github.com/jayanthansenthilkumar/Dhiksha/rerank"
)

func init() {
	config.Register("recall.candidates", BuildCandidatesNode)
	config.Register("rank.score", BuildScoreNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildCandidatesNode 从配置构建候选生成 Node。
// 召回臂需要 KV 存储的（hot 的 Redis 排行），配置驱动路径下退化为快照热度；
// 需要外部存储的链路建议在代码里直接装配。
func BuildCandidatesNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	gen := &recall.Generator{}
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		switch sourceType := conv.ConfigGet(sourceMap, "type", ""); sourceType {
		case "interest":
			gen.Sources = append(gen.Sources, &recall.InterestRecall{})
		case "collaborative":
			gen.Sources = append(gen.Sources, &recall.CollaborativeRecall{
				SimilarUserLimit: int(conv.ConfigGetInt64(sourceMap, "similar_user_limit", 0)),
			})
		case "hot":
			gen.Sources = append(gen.Sources, &recall.Hot{
				Key:  conv.ConfigGet(sourceMap, "key", ""),
				TopN: int(conv.ConfigGetInt64(sourceMap, "top_n", 0)),
			})
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	gen.Backstop = &recall.Hot{}
	gen.CandidateMultiplier = int(conv.ConfigGetInt64(cfg, "candidate_multiplier", 0))
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		gen.Timeout = time.Duration(sec) * time.Second
	}
	return gen, nil
}

// BuildScoreNode 从配置构建打分 Node：weights 子表覆盖默认权重，
// 其余键覆盖打分常量。
func BuildScoreNode(cfg map[string]any) (pipeline.Node, error) {
	weights := rank.DefaultWeights()
	if wm, ok := cfg["weights"].(map[string]any); ok {
		weights.Interest = conv.ConfigGetFloat(wm, "interest", weights.Interest)
		weights.Difficulty = conv.ConfigGetFloat(wm, "difficulty", weights.Difficulty)
		weights.Popularity = conv.ConfigGetFloat(wm, "popularity", weights.Popularity)
		weights.Collaborative = conv.ConfigGetFloat(wm, "collaborative", weights.Collaborative)
		weights.Recency = conv.ConfigGetFloat(wm, "recency", weights.Recency)
		weights.Exploration = conv.ConfigGetFloat(wm, "exploration", weights.Exploration)
	}

	scorerCfg := rank.DefaultScorerConfig()
	scorerCfg.DifficultyDecay = conv.ConfigGetFloat(cfg, "difficulty_decay", scorerCfg.DifficultyDecay)
	if days := conv.ConfigGetFloat(cfg, "recency_half_life_days", 0); days > 0 {
		scorerCfg.RecencyHalfLife = time.Duration(days * 24 * float64(time.Hour))
	}
	scorerCfg.QuizThreshold = conv.ConfigGetFloat(cfg, "quiz_threshold", scorerCfg.QuizThreshold)
	if n := conv.ConfigGetInt64(cfg, "similar_user_limit", 0); n > 0 {
		scorerCfg.SimilarUserLimit = int(n)
	}

	return rank.NewScoreNode(rank.NewScorer(scorerCfg), rank.NewBlender(weights), zerolog.Nop()), nil
}

// BuildFilterNode 从配置构建过滤 Node。
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "completed":
			filters = append(filters, &filter.Completed{})
		case "blacklist":
			filters = append(filters, &filter.Blacklist{
				ContentIDs: conv.SliceAnyToString(filterMap["content_ids"]),
				Key:        conv.ConfigGet(filterMap, "key", ""),
			})
		case "rule":
			rule, err := filter.NewRule(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, fmt.Errorf("build rule filter: %w", err)
			}
			filters = append(filters, rule)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.Node{Filters: filters}, nil
}

// BuildTopNNode 从配置构建截断 Node。
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopN{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}
