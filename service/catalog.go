package service

import (
	"context"
	"sort"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// Catalog 提供用户/内容/事件的列表查询，供管理面与调试使用。
type Catalog struct {
	repo core.Repository
}

func NewCatalog(repo core.Repository) *Catalog {
	return &Catalog{repo: repo}
}

// UserRow 是用户列表中的一行，带事件总数。
type UserRow struct {
	*core.User
	EventCount int `json:"event_count"`
}

// Users 返回用户列表：事件数降序、ID 升序，支持分页。
func (c *Catalog) Users(ctx context.Context, limit, offset int) ([]UserRow, error) {
	snap, err := c.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, ev := range snap.Events() {
		counts[ev.UserID]++
	}
	rows := make([]UserRow, 0, snap.UserCount())
	for _, u := range snap.Users() {
		rows = append(rows, UserRow{User: u, EventCount: counts[u.ID]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].EventCount != rows[j].EventCount {
			return rows[i].EventCount > rows[j].EventCount
		}
		return rows[i].ID < rows[j].ID
	})
	return paginate(rows, limit, offset), nil
}

// ContentFilter 是内容列表的过滤条件，零值表示不过滤。
type ContentFilter struct {
	Difficulty core.Difficulty
	Type       core.ContentType
}

// Contents 返回内容列表：热度降序、ID 升序，支持过滤与分页。
func (c *Catalog) Contents(ctx context.Context, f ContentFilter, limit, offset int) ([]*core.Content, error) {
	snap, err := c.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Content, 0, snap.ContentCount())
	for _, id := range snap.PopularOrder() {
		content := snap.Content(id)
		if f.Difficulty != "" && content.Difficulty != f.Difficulty {
			continue
		}
		if f.Type != "" && content.Type != f.Type {
			continue
		}
		out = append(out, content)
	}
	return paginate(out, limit, offset), nil
}

// EventRow 是最近事件列表中的一行，带用户名与内容标题。
type EventRow struct {
	*core.Event
	UserName     string `json:"user_name"`
	ContentTitle string `json:"content_title"`
}

// RecentEvents 返回最近事件：时间戳降序、事件 ID 升序破平。
// 用户或内容已不存在的事件跳过。
func (c *Catalog) RecentEvents(ctx context.Context, limit int) ([]EventRow, error) {
	snap, err := c.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	events := snap.Events()
	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := events[idx[a]], events[idx[b]]
		if !ea.Timestamp.Equal(eb.Timestamp) {
			return ea.Timestamp.After(eb.Timestamp)
		}
		return ea.ID < eb.ID
	})

	if limit <= 0 {
		limit = 100
	}
	rows := make([]EventRow, 0, limit)
	for _, i := range idx {
		if len(rows) >= limit {
			break
		}
		ev := events[i]
		u := snap.User(ev.UserID)
		content := snap.Content(ev.ContentID)
		if u == nil || content == nil {
			continue
		}
		rows = append(rows, EventRow{Event: ev, UserName: u.Name, ContentTitle: content.Title})
	}
	return rows, nil
}

// paginate 截取 [offset, offset+limit) 区间；limit<=0 用默认 100。
func paginate[T any](rows []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
