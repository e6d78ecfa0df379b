package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/recall"
)

// EventInput 是事件上报的入参。
type EventInput struct {
	UserID    string         `json:"user_id"`
	ContentID string         `json:"content_id"`
	Type      core.EventType `json:"event_type"`
	Value     float64        `json:"value,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
}

// Ingestor 是事件采集侧的编排：校验 -> 追加事件 -> 回写衍生状态。
//
// 回写包括三件事：用户 last_active、内容热度（0.01 * 事件总数，封顶 1.0）、
// 热门排行 ZSET。热度回写是采集侧的职责，推荐核心只读这个字段。
type Ingestor struct {
	repo core.Repository
	hot  core.KeyValueStore // 可为 nil，热门排行退化为快照热度排序
	key  string

	broadcaster Broadcaster
	log         zerolog.Logger
}

func NewIngestor(repo core.Repository, hot core.KeyValueStore, logger zerolog.Logger, opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		repo: repo,
		hot:  hot,
		key:  recall.DefaultHotKey,
		log:  logger.With().Str("component", "ingestor").Logger(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

type IngestorOption func(*Ingestor)

// WithIngestBroadcaster 挂载实时推送通道。
func WithIngestBroadcaster(b Broadcaster) IngestorOption {
	return func(ing *Ingestor) { ing.broadcaster = b }
}

// WithHotKey 覆盖热门排行的 ZSET key。
func WithHotKey(key string) IngestorOption {
	return func(ing *Ingestor) {
		if key != "" {
			ing.key = key
		}
	}
}

// LogEvent 记录一条交互事件并回写衍生状态。
//   - 事件类型不合法返回 INVALID_INPUT
//   - 用户/内容不存在返回对应的 NotFound 错误
//   - 衍生回写（热度、排行、推送）失败只告警，事件本身已落库
func (ing *Ingestor) LogEvent(ctx context.Context, in EventInput) (*core.Event, error) {
	if !core.ValidEventType(in.Type) {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: unknown event type "+string(in.Type))
	}

	snap, err := ing.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.User(in.UserID) == nil {
		return nil, core.ErrUserNotFound
	}
	if snap.Content(in.ContentID) == nil {
		return nil, core.ErrContentNotFound
	}

	now := time.Now()
	ev := &core.Event{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		ContentID: in.ContentID,
		Type:      in.Type,
		Value:     in.Value,
		SessionID: in.SessionID,
		Timestamp: now,
	}
	if err := ing.repo.AppendEvent(ctx, ev); err != nil {
		return nil, err
	}

	if err := ing.repo.UpdateUserLastActive(ctx, in.UserID, now); err != nil {
		ing.log.Warn().Err(err).Str("user_id", in.UserID).Msg("update last_active failed")
	}

	// 热度 = min(0.01 * 该内容事件总数, 1.0)；快照里不含刚写入的这条，补 1
	count := len(snap.EventsByContent(in.ContentID)) + 1
	popularity := 0.01 * float64(count)
	if popularity > 1.0 {
		popularity = 1.0
	}
	if err := ing.repo.UpdateContentPopularity(ctx, in.ContentID, popularity); err != nil {
		ing.log.Warn().Err(err).Str("content_id", in.ContentID).Msg("update popularity failed")
	}

	if ing.hot != nil {
		if err := ing.hot.ZAdd(ctx, ing.key, float64(count), in.ContentID); err != nil {
			ing.log.Warn().Err(err).Str("content_id", in.ContentID).Msg("hot zset update failed")
		}
	}

	if ing.broadcaster != nil {
		ing.broadcaster.Broadcast(map[string]any{
			"type":       "event",
			"event_type": string(in.Type),
			"user_id":    in.UserID,
			"content_id": in.ContentID,
			"timestamp":  now.UTC().Format(time.RFC3339),
		})
	}

	ing.log.Debug().
		Str("event_id", ev.ID).
		Str("user_id", in.UserID).
		Str("content_id", in.ContentID).
		Str("event_type", string(in.Type)).
		Msg("event logged")

	return ev, nil
}
