package store

import (
	"context"
	"sync"
	"time"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// MemoryRepository 是内存实现的 Repository，用于测试/示例/单机体验。
//
// 并发模型：互斥锁只保护内部 map/slice；Snapshot() 在读锁内做一次
// 深拷贝（User/Content 结构体复制、事件指针列表复制），之后快照完全
// 脱离锁存在——进行中的 Recommend 调用不会看到并发 AppendEvent 的
// 半更新状态，锁也绝不跨出仓库调用。
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[string]*core.User
	contents map[string]*core.Content
	events   []*core.Event
	logs     []*core.LogEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]*core.User),
		contents: make(map[string]*core.Content),
	}
}

var _ core.Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) Name() string { return "memory" }

// Load 批量装入种子数据（启动时一次）。
func (m *MemoryRepository) Load(users []*core.User, contents []*core.Content, events []*core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		cp := *u
		m.users[u.ID] = &cp
	}
	for _, c := range contents {
		cp := *c
		m.contents[c.ID] = &cp
	}
	m.events = append(m.events, events...)
}

func (m *MemoryRepository) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*core.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		users = append(users, &cp)
	}
	contents := make([]*core.Content, 0, len(m.contents))
	for _, c := range m.contents {
		cp := *c
		contents = append(contents, &cp)
	}
	// 事件 append-only 且不可变，复制指针列表即可
	events := make([]*core.Event, len(m.events))
	copy(events, m.events)

	return core.NewSnapshot(time.Now(), users, contents, events), nil
}

func (m *MemoryRepository) AppendEvent(ctx context.Context, ev *core.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryRepository) AppendLog(ctx context.Context, entries []*core.LogEntry) error {
	// all-or-nothing：取消信号在追加前检查，追加本身在锁内一次完成
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entries...)
	return nil
}

func (m *MemoryRepository) UpdateUserLastActive(ctx context.Context, userID string, ts time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return core.ErrUserNotFound
	}
	u.LastActive = ts
	return nil
}

func (m *MemoryRepository) UpdateContentPopularity(ctx context.Context, contentID string, score float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contents[contentID]
	if !ok {
		return core.ErrContentNotFound
	}
	c.Popularity = score
	return nil
}

func (m *MemoryRepository) Close() error { return nil }

// Logs 返回已写入的推荐日志副本（测试用）。
func (m *MemoryRepository) Logs() []*core.LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.LogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}
