// Package dhiksha 是一个学习内容推荐引擎。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（候选生成 → 信号打分 → 过滤 → TopN）
// - Snapshot-first: 一次请求恰好取一份点时一致的快照，全链路只读它
// - 确定性: 同一快照 + 同一 RequestID 的两次调用输出逐字节一致
package dhiksha

import "github.com/jayanthansenthilkumar/Dhiksha/pipeline"

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)
