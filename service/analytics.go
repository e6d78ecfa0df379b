package service

import (
	"context"
	"sort"
	"time"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// Overview 是全站分析概览。
type Overview struct {
	TotalUsers        int                `json:"total_users"`
	TotalContent      int                `json:"total_content"`
	TotalEvents       int                `json:"total_events"`
	ActiveUsers24h    int                `json:"active_users_24h"`
	PopularContent    []PopularItem      `json:"popular_content"`
	EventDistribution map[string]int     `json:"event_distribution"`
	EngagementRate    float64            `json:"engagement_rate"`
}

// PopularItem 是近 7 天交互量 Top 内容的一项。
type PopularItem struct {
	ContentID        string `json:"content_id"`
	Title            string `json:"title"`
	Type             string `json:"content_type"`
	InteractionCount int    `json:"interaction_count"`
}

// UserOverview 是单个用户的行为画像。
type UserOverview struct {
	UserID           string         `json:"user_id"`
	TotalEvents      int            `json:"total_events"`
	ContentViewed    int            `json:"content_viewed"`
	ContentCompleted int            `json:"content_completed"`
	AvgQuizScore     float64        `json:"avg_quiz_score"`
	PreferredTopics  []string       `json:"preferred_topics"`
	ActivityTrend    []ActivityDay  `json:"activity_trend"`
}

// ActivityDay 是活跃趋势中的一天。
type ActivityDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Analytics 基于快照做聚合统计。全部指标从同一份快照算出，
// 彼此之间点时一致。
type Analytics struct {
	repo core.Repository
}

func NewAnalytics(repo core.Repository) *Analytics {
	return &Analytics{repo: repo}
}

const popularContentLimit = 10

// Overview 返回全站概览。
func (a *Analytics) Overview(ctx context.Context) (*Overview, error) {
	snap, err := a.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	active := make(map[string]struct{})
	weekCount := make(map[string]int)
	dist := make(map[string]int)
	engaged := make(map[string]struct{})
	allUsers := make(map[string]struct{})

	for _, ev := range snap.Events() {
		dist[string(ev.Type)]++
		allUsers[ev.UserID] = struct{}{}
		if ev.Timestamp.After(dayAgo) {
			active[ev.UserID] = struct{}{}
		}
		if ev.Timestamp.After(weekAgo) {
			weekCount[ev.ContentID]++
		}
		if ev.Type == core.EventComplete {
			engaged[ev.UserID] = struct{}{}
		}
	}

	// 近 7 天交互量降序，ID 升序破平
	ids := make([]string, 0, len(weekCount))
	for id := range weekCount {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if weekCount[ids[i]] != weekCount[ids[j]] {
			return weekCount[ids[i]] > weekCount[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > popularContentLimit {
		ids = ids[:popularContentLimit]
	}
	popular := make([]PopularItem, 0, len(ids))
	for _, id := range ids {
		c := snap.Content(id)
		if c == nil {
			continue
		}
		popular = append(popular, PopularItem{
			ContentID:        id,
			Title:            c.Title,
			Type:             string(c.Type),
			InteractionCount: weekCount[id],
		})
	}

	var engagement float64
	if len(allUsers) > 0 {
		engagement = float64(len(engaged)) / float64(len(allUsers))
	}

	return &Overview{
		TotalUsers:        snap.UserCount(),
		TotalContent:      snap.ContentCount(),
		TotalEvents:       snap.EventCount(),
		ActiveUsers24h:    len(active),
		PopularContent:    popular,
		EventDistribution: dist,
		EngagementRate:    engagement,
	}, nil
}

const preferredTopicLimit = 5

// User 返回单个用户的行为画像；用户不存在返回 ErrUserNotFound。
func (a *Analytics) User(ctx context.Context, userID string) (*UserOverview, error) {
	snap, err := a.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.User(userID) == nil {
		return nil, core.ErrUserNotFound
	}

	now := time.Now()
	weekAgo := now.Add(-7 * 24 * time.Hour)

	total := 0
	viewed := make(map[string]struct{})
	completed := make(map[string]struct{})
	var quizSum float64
	quizN := 0
	tagCount := make(map[string]int)
	trend := make(map[string]int)

	for _, ev := range snap.Events() {
		if ev.UserID != userID {
			continue
		}
		total++
		switch ev.Type {
		case core.EventView:
			viewed[ev.ContentID] = struct{}{}
		case core.EventComplete:
			completed[ev.ContentID] = struct{}{}
		case core.EventQuizScore:
			quizSum += ev.Value
			quizN++
		}
		if c := snap.Content(ev.ContentID); c != nil {
			for _, tag := range c.Tags {
				tagCount[tag]++
			}
		}
		if ev.Timestamp.After(weekAgo) {
			trend[ev.Timestamp.UTC().Format("2006-01-02")]++
		}
	}

	var avgQuiz float64
	if quizN > 0 {
		avgQuiz = quizSum / float64(quizN)
	}

	// 偏好话题：事件数降序，tag 字典序破平
	tags := make([]string, 0, len(tagCount))
	for tag := range tagCount {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tagCount[tags[i]] != tagCount[tags[j]] {
			return tagCount[tags[i]] > tagCount[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > preferredTopicLimit {
		tags = tags[:preferredTopicLimit]
	}

	dates := make([]string, 0, len(trend))
	for d := range trend {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	days := make([]ActivityDay, 0, len(dates))
	for _, d := range dates {
		days = append(days, ActivityDay{Date: d, Count: trend[d]})
	}

	return &UserOverview{
		UserID:           userID,
		TotalEvents:      total,
		ContentViewed:    len(viewed),
		ContentCompleted: len(completed),
		AvgQuizScore:     avgQuiz,
		PreferredTopics:  tags,
		ActivityTrend:    days,
	}, nil
}
