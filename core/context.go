package core

import (
	"time"

	"github.com/jayanthansenthilkumar/Dhiksha/pkg/utils"
)

// RecommendContext 承载单次推荐请求的全部上下文，贯穿整个 Pipeline 透传。
//
// 并发约束：一次 Recommend 调用构造一个 RecommendContext，节点之间串行传递；
// 跨请求不共享，核心链路因此天然可并发。
type RecommendContext struct {
	UserID    string
	RequestID string // 请求标识，参与探索噪声的种子推导
	Strategy  Strategy
	K         int

	// Now 是本次调用的固定时间戳；所有时间衰减信号以它为基准，
	// 保证同一快照 + 同一请求的输出可复现。
	Now time.Time

	// User 是从快照解析出的学习者画像
	User *User

	// Snap 是本次调用的点时一致视图，所有节点只读它，
	// 不会在调用中途看到并发写入的半更新状态。
	Snap *Snapshot

	// Labels 是请求级标签，可驱动 Pipeline 行为（例如新用户、实验桶）。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（调试开关、来源渠道等）。
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
