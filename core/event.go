package core

import "time"

// EventType 是用户与内容的交互类型。
type EventType string

const (
	EventView      EventType = "view"
	EventComplete  EventType = "complete"
	EventLike      EventType = "like"
	EventBookmark  EventType = "bookmark"
	EventQuizScore EventType = "quiz_score"
	EventShare     EventType = "share"
)

// ValidEventType 检查事件类型是否在封闭集合内。
func ValidEventType(t EventType) bool {
	switch t {
	case EventView, EventComplete, EventLike, EventBookmark, EventQuizScore, EventShare:
		return true
	}
	return false
}

// Event 是一条交互事件，append-only：核心链路只追加、只读，从不修改或删除。
// 事件到达顺序不保证与时间戳一致，recency 信号按时间戳计算以容忍乱序。
type Event struct {
	ID        string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	ContentID string    `json:"content_id"`
	Type      EventType `json:"event_type"`
	Value     float64   `json:"value,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsInteraction 判断事件是否属于"看过"语义（view/complete/like），
// 用于相似用户的定义与已见内容集合。
func (e *Event) IsInteraction() bool {
	switch e.Type {
	case EventView, EventComplete, EventLike:
		return true
	}
	return false
}

// IsPositive 判断事件是否属于正向交互（complete/like/高分 quiz）。
// quizThreshold 是 quiz_score 计入正向的最低分数。
func (e *Event) IsPositive(quizThreshold float64) bool {
	switch e.Type {
	case EventComplete, EventLike:
		return true
	case EventQuizScore:
		return e.Value >= quizThreshold
	}
	return false
}
