package core

import (
	"context"
	"sort"
	"time"
)

// Repository 是三张集合（Users / Content / Events）与推荐日志的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 推荐核心对 User/Content/Event 只读（Snapshot），只写推荐日志（AppendLog）
//   - AppendEvent / Update* 属于事件采集侧（sibling），不在推荐调用路径上
//   - AppendLog 整批原子：要么全部写入要么全部不写，ctx 取消时不得留下半截日志
type Repository interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Snapshot 返回一份点时一致的只读视图。
	// 一次 Recommend 调用恰好取一次快照；并发写入不会污染进行中的调用。
	Snapshot(ctx context.Context) (*Snapshot, error)

	// AppendEvent 追加一条交互事件（append-only）
	AppendEvent(ctx context.Context, ev *Event) error

	// AppendLog 整批追加推荐日志（all-or-nothing）
	AppendLog(ctx context.Context, entries []*LogEntry) error

	// UpdateUserLastActive 更新用户最后活跃时间（事件采集侧调用）
	UpdateUserLastActive(ctx context.Context, userID string, ts time.Time) error

	// UpdateContentPopularity 回写内容热度（外部聚合语义，核心只读它）
	UpdateContentPopularity(ctx context.Context, contentID string, score float64) error

	// Close 关闭连接/释放资源
	Close() error
}

// Snapshot 是 Users/Content/Events 的不可变点时视图。
//
// 构造时一次性建好派生索引（已见集合、完成集合、内容倒排、最新事件时间），
// 此后全程只读：持有同一个 Snapshot 的多个 goroutine 可安全并发访问。
type Snapshot struct {
	TakenAt time.Time

	users    map[string]*User
	contents map[string]*Content
	events   []*Event

	// contentIDs / userIDs 按 ID 升序，保证遍历顺序确定
	contentIDs []string
	userIDs    []string

	// popularOrder 按热度降序、ID 升序，热门兜底按它取
	popularOrder []string

	seen          map[string]map[string]struct{} // userID -> 交互过(view/complete/like)的 contentID
	completed     map[string]map[string]struct{} // userID -> 已完成的 contentID
	interactedBy  map[string]map[string]struct{} // contentID -> 交互过的 userID
	byContent     map[string][]*Event            // contentID -> 事件
	lastEventAt   map[string]time.Time           // contentID -> 最新事件时间戳
}

// NewSnapshot 构建快照并预计算派生索引。
// events 可以乱序到达，索引按时间戳而非到达顺序计算。
func NewSnapshot(takenAt time.Time, users []*User, contents []*Content, events []*Event) *Snapshot {
	s := &Snapshot{
		TakenAt:      takenAt,
		users:        make(map[string]*User, len(users)),
		contents:     make(map[string]*Content, len(contents)),
		events:       events,
		seen:         make(map[string]map[string]struct{}),
		completed:    make(map[string]map[string]struct{}),
		interactedBy: make(map[string]map[string]struct{}),
		byContent:    make(map[string][]*Event),
		lastEventAt:  make(map[string]time.Time),
	}
	s.userIDs = make([]string, 0, len(users))
	for _, u := range users {
		s.users[u.ID] = u
		s.userIDs = append(s.userIDs, u.ID)
	}
	sort.Strings(s.userIDs)
	s.contentIDs = make([]string, 0, len(contents))
	for _, c := range contents {
		s.contents[c.ID] = c
		s.contentIDs = append(s.contentIDs, c.ID)
	}
	sort.Strings(s.contentIDs)

	s.popularOrder = make([]string, len(s.contentIDs))
	copy(s.popularOrder, s.contentIDs)
	sort.SliceStable(s.popularOrder, func(i, j int) bool {
		a, b := s.contents[s.popularOrder[i]], s.contents[s.popularOrder[j]]
		if a.Popularity != b.Popularity {
			return a.Popularity > b.Popularity
		}
		return a.ID < b.ID
	})

	for _, ev := range events {
		s.byContent[ev.ContentID] = append(s.byContent[ev.ContentID], ev)
		if last, ok := s.lastEventAt[ev.ContentID]; !ok || ev.Timestamp.After(last) {
			s.lastEventAt[ev.ContentID] = ev.Timestamp
		}
		if ev.IsInteraction() {
			if s.seen[ev.UserID] == nil {
				s.seen[ev.UserID] = make(map[string]struct{})
			}
			s.seen[ev.UserID][ev.ContentID] = struct{}{}
			if s.interactedBy[ev.ContentID] == nil {
				s.interactedBy[ev.ContentID] = make(map[string]struct{})
			}
			s.interactedBy[ev.ContentID][ev.UserID] = struct{}{}
		}
		if ev.Type == EventComplete {
			if s.completed[ev.UserID] == nil {
				s.completed[ev.UserID] = make(map[string]struct{})
			}
			s.completed[ev.UserID][ev.ContentID] = struct{}{}
		}
	}
	return s
}

// User 按 ID 查找用户；不存在返回 nil。
func (s *Snapshot) User(id string) *User { return s.users[id] }

// Content 按 ID 查找内容；不存在返回 nil。
func (s *Snapshot) Content(id string) *Content { return s.contents[id] }

// ContentIDs 返回全部内容 ID（ID 升序，调用方不得修改）。
func (s *Snapshot) ContentIDs() []string { return s.contentIDs }

// PopularOrder 返回按热度降序（ID 破平）的内容 ID 列表。
func (s *Snapshot) PopularOrder() []string { return s.popularOrder }

// Users 返回全部用户（ID 升序，调用方不得修改元素）。
func (s *Snapshot) Users() []*User {
	out := make([]*User, 0, len(s.userIDs))
	for _, id := range s.userIDs {
		out = append(out, s.users[id])
	}
	return out
}

// Contents 返回全部内容（ID 升序，调用方不得修改元素）。
func (s *Snapshot) Contents() []*Content {
	out := make([]*Content, 0, len(s.contentIDs))
	for _, id := range s.contentIDs {
		out = append(out, s.contents[id])
	}
	return out
}

// UserCount / ContentCount / EventCount 返回集合规模。
func (s *Snapshot) UserCount() int    { return len(s.users) }
func (s *Snapshot) ContentCount() int { return len(s.contents) }
func (s *Snapshot) EventCount() int   { return len(s.events) }

// Events 返回全部事件（调用方不得修改）。
func (s *Snapshot) Events() []*Event { return s.events }

// EventsByContent 返回某内容的全部事件。
func (s *Snapshot) EventsByContent(contentID string) []*Event { return s.byContent[contentID] }

// Seen 返回用户交互过（view/complete/like）的内容 ID 集合。
func (s *Snapshot) Seen(userID string) map[string]struct{} { return s.seen[userID] }

// HasCompleted 判断用户是否完成过某内容。
func (s *Snapshot) HasCompleted(userID, contentID string) bool {
	done, ok := s.completed[userID]
	if !ok {
		return false
	}
	_, ok = done[contentID]
	return ok
}

// LastEventAt 返回某内容在全平台的最新事件时间；没有事件时 ok=false。
func (s *Snapshot) LastEventAt(contentID string) (time.Time, bool) {
	t, ok := s.lastEventAt[contentID]
	return t, ok
}

// SimilarUsers 返回相似用户列表：与目标用户至少共同交互过一条内容的用户，
// 按共同内容数降序、用户 ID 升序排序，最多 limit 个（limit<=0 不截断）。
// 目标用户无历史时返回空（冷启动由热门兜底承接）。
func (s *Snapshot) SimilarUsers(userID string, limit int) []string {
	mine, ok := s.seen[userID]
	if !ok || len(mine) == 0 {
		return nil
	}
	overlap := make(map[string]int)
	for contentID := range mine {
		for other := range s.interactedBy[contentID] {
			if other == userID {
				continue
			}
			overlap[other]++
		}
	}
	if len(overlap) == 0 {
		return nil
	}
	ids := make([]string, 0, len(overlap))
	for id := range overlap {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if overlap[ids[i]] != overlap[ids[j]] {
			return overlap[ids[i]] > overlap[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}
