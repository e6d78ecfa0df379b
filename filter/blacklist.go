package filter

import (
	"context"
	"encoding/json"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// DefaultBlacklistKey 是运营黑名单在 KV 存储中的默认 key。
const DefaultBlacklistKey = "admin:blacklist"

// Blacklist 是黑名单过滤器，过滤掉运营下架/屏蔽的内容。
// 支持两种数据源：内存 ID 列表（静态配置）和 KV 存储（运营后台实时维护，
// 存 JSON 字符串数组）。
type Blacklist struct {
	// ContentIDs 是内存中的黑名单内容 ID 列表
	ContentIDs []string

	// Store 用于从存储中读取黑名单（可选）
	Store core.Store

	// Key 是 Store 中的黑名单 key，默认 DefaultBlacklistKey
	Key string
}

func (f *Blacklist) Name() string { return "filter.blacklist" }

func (f *Blacklist) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.ContentIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil {
		key := f.Key
		if key == "" {
			key = DefaultBlacklistKey
		}
		data, err := f.Store.Get(ctx, key)
		if err != nil {
			// 黑名单读不到时放行：过滤器失败不拖垮请求
			return false, nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return false, nil
		}
		for _, id := range ids {
			if item.ID == id {
				return true, nil
			}
		}
	}

	return false, nil
}
