package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pipeline"
)

// ModelVersion 标记当前打分公式的版本，随每条推荐返回并落日志。
const ModelVersion = "v2.0.0"

const (
	// DefaultK 未显式传 k 时的推荐条数
	DefaultK = 10
	// MaxK 单次请求的推荐条数上限
	MaxK = 50
)

// Broadcaster 把实时消息推给所有在线客户端（WebSocket Hub 实现它）。
// 推送失败不影响主流程。
type Broadcaster interface {
	Broadcast(msg any)
}

// Recommender 是推荐服务的编排层：
// 解析参数 -> 取一次快照 -> 跑 Pipeline -> 组装结果 -> 落推荐日志。
//
// 一次调用恰好取一次快照，调用期间的并发写入不影响本次结果；
// 同一快照 + 同一 RequestID 的两次调用输出逐字节一致。
type Recommender struct {
	repo core.Repository
	pipe *pipeline.Pipeline
	log  zerolog.Logger

	broadcaster Broadcaster

	// rejectUnknownStrategy 为 true 时未识别的 strategy 直接报错（400 语义），
	// 否则回落到 hybrid。
	rejectUnknownStrategy bool

	defaultK int
	maxK     int
}

// RecommenderOption 配置 Recommender 的可选项。
type RecommenderOption func(*Recommender)

// WithBroadcaster 挂载实时推送通道。
func WithBroadcaster(b Broadcaster) RecommenderOption {
	return func(r *Recommender) { r.broadcaster = b }
}

// WithStrategyRejection 控制未识别 strategy 的处理：报错还是回落 hybrid。
func WithStrategyRejection(reject bool) RecommenderOption {
	return func(r *Recommender) { r.rejectUnknownStrategy = reject }
}

// WithKBounds 覆盖 k 的默认值与上限（<=0 的值忽略）。
func WithKBounds(defaultK, maxK int) RecommenderOption {
	return func(r *Recommender) {
		if defaultK > 0 {
			r.defaultK = defaultK
		}
		if maxK > 0 {
			r.maxK = maxK
		}
	}
}

func NewRecommender(repo core.Repository, pipe *pipeline.Pipeline, logger zerolog.Logger, opts ...RecommenderOption) *Recommender {
	r := &Recommender{
		repo:     repo,
		pipe:     pipe,
		log:      logger.With().Str("component", "recommender").Logger(),
		defaultK: DefaultK,
		maxK:     MaxK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend 为用户生成 Top-K 推荐。
//   - k<=0 用默认值，超上限截断到上限
//   - strategyRaw 为空回落 hybrid；未识别的值按部署策略报错或回落
//   - 用户不存在返回 ErrUserNotFound
//   - 推荐日志整批写入；日志失败只告警，不影响已算出的结果下发
func (r *Recommender) Recommend(ctx context.Context, userID string, k int, strategyRaw string) (*core.Result, error) {
	start := time.Now()

	strategy, err := core.ResolveStrategy(strategyRaw, r.rejectUnknownStrategy)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = r.defaultK
	}
	if k > r.maxK {
		k = r.maxK
	}

	snap, err := r.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	user := snap.User(userID)
	if user == nil {
		return nil, core.ErrUserNotFound
	}

	rctx := &core.RecommendContext{
		UserID:    userID,
		RequestID: uuid.NewString(),
		Strategy:  strategy,
		K:         k,
		Now:       start,
		User:      user,
		Snap:      snap,
	}

	items, err := r.pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	recs := make([]core.Recommendation, 0, len(items))
	entries := make([]*core.LogEntry, 0, len(items))
	for _, it := range items {
		content := snap.Content(it.ID)
		if content == nil {
			// 候选生成阶段已过滤过，这里兜底再查一次
			continue
		}
		recs = append(recs, core.Recommendation{
			ContentID:  it.ID,
			Title:      content.Title,
			Score:      it.Score,
			ReasonTags: it.Reasons,
			Difficulty: content.Difficulty,
			Type:       content.Type,
		})
		entries = append(entries, &core.LogEntry{
			ID:           uuid.NewString(),
			UserID:       userID,
			ContentID:    it.ID,
			Score:        it.Score,
			Strategy:     strategy,
			ReasonTags:   it.Reasons,
			ModelVersion: ModelVersion,
			Timestamp:    start,
		})
	}

	if len(entries) > 0 {
		if err := r.repo.AppendLog(ctx, entries); err != nil {
			r.log.Warn().Err(err).Str("user_id", userID).Msg("append recommendation log failed")
		}
	}

	result := &core.Result{
		UserID:          userID,
		Recommendations: recs,
		Strategy:        strategy,
		ModelVersion:    ModelVersion,
		LatencyMS:       time.Since(start).Milliseconds(),
	}

	if r.broadcaster != nil {
		r.broadcaster.Broadcast(map[string]any{
			"type":      "recommendation",
			"user_id":   userID,
			"count":     len(recs),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}

	r.log.Info().
		Str("user_id", userID).
		Str("request_id", rctx.RequestID).
		Str("strategy", string(strategy)).
		Int("k", k).
		Int("returned", len(recs)).
		Int64("latency_ms", result.LatencyMS).
		Msg("recommend")

	return result, nil
}
