package core

import "time"

// Recommendation 是返回给调用方的单条推荐。
type Recommendation struct {
	ContentID  string      `json:"content_id"`
	Title      string      `json:"title"`
	Score      float64     `json:"score"`
	ReasonTags []string    `json:"reason_tags"`
	Difficulty Difficulty  `json:"difficulty"`
	Type       ContentType `json:"content_type"`
}

// Result 是一次 Recommend 调用的完整结果。
type Result struct {
	UserID          string           `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Strategy        Strategy         `json:"strategy"`
	ModelVersion    string           `json:"model_version"`
	LatencyMS       int64            `json:"latency_ms"`
}

// LogEntry 是推荐日志的一条记录，每条下发的推荐写一条。
// append-only：Clicked 之后由外部点击追踪协作方回写，核心不碰。
type LogEntry struct {
	ID           string    `json:"log_id"`
	UserID       string    `json:"user_id"`
	ContentID    string    `json:"content_id"`
	Score        float64   `json:"score"`
	Strategy     Strategy  `json:"strategy"`
	ReasonTags   []string  `json:"reason_tags"`
	ModelVersion string    `json:"model_version"`
	Timestamp    time.Time `json:"timestamp"`
	Clicked      bool      `json:"clicked"`
}
