package core

import "github.com/jayanthansenthilkumar/Dhiksha/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选内容 + 信号分量 + 最终分数 + 标签。
// Signals 由打分阶段写入（五个子分量，均在 [0,1]）；Score 用于排序决策；
// Labels 承载 reason tag 与链路观测信息，纯解释用途，不影响排序。
type Item struct {
	ID      string
	Score   float64
	Signals map[string]float64
	Meta    map[string]any
	Labels  map[string]utils.Label

	// Reasons 是最终输出的 reason tag（有序、去重），由 Blender 填充。
	Reasons []string
}

func NewItem(id string) *Item {
	return &Item{
		ID:      id,
		Score:   0,
		Signals: make(map[string]float64),
		Meta:    make(map[string]any),
		Labels:  make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Signal 读取某个信号分量，缺失返回 0。
func (it *Item) Signal(name string) float64 {
	if it.Signals == nil {
		return 0
	}
	return it.Signals[name]
}

// PutSignal 写入信号分量。
func (it *Item) PutSignal(name string, v float64) {
	if it.Signals == nil {
		it.Signals = make(map[string]float64)
	}
	it.Signals[name] = v
}

// AddReason 追加一个 reason tag，保持插入顺序并去重。
func (it *Item) AddReason(tag string) {
	for _, r := range it.Reasons {
		if r == tag {
			return
		}
	}
	it.Reasons = append(it.Reasons, tag)
}
