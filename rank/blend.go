package rank

import (
	"hash/fnv"
	"math/rand"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// Weights 是一组命名权重向量：五路信号各一个权重，外加探索项权重。
// 策略分发不走字符串分支，而是从基准向量派生出封闭的几个变体。
type Weights struct {
	Interest      float64 `yaml:"interest" json:"interest"`
	Difficulty    float64 `yaml:"difficulty" json:"difficulty"`
	Popularity    float64 `yaml:"popularity" json:"popularity"`
	Collaborative float64 `yaml:"collaborative" json:"collaborative"`
	Recency       float64 `yaml:"recency" json:"recency"`
	Exploration   float64 `yaml:"exploration" json:"exploration"`
}

// DefaultWeights 是 hybrid 策略的默认权重。
func DefaultWeights() Weights {
	return Weights{
		Interest:      0.30,
		Difficulty:    0.20,
		Popularity:    0.15,
		Collaborative: 0.20,
		Recency:       0.10,
		Exploration:   0.05,
	}
}

// signalSum 返回五路信号权重之和（不含探索项）。
func (w Weights) signalSum() float64 {
	return w.Interest + w.Difficulty + w.Popularity + w.Collaborative + w.Recency
}

// ForStrategy 从基准向量派生策略变体：
//   - hybrid：原样返回
//   - collaborative：清零其余四路，把信号权重质量全部归一到协同分量
//   - content_based：清零协同，按比例归一到其余四路
//
// 探索项权重在所有变体中保持不变。归一化是计算出来的，不硬编码常量。
func (w Weights) ForStrategy(s core.Strategy) Weights {
	mass := w.signalSum()
	switch s {
	case core.StrategyCollaborative:
		return Weights{Collaborative: mass, Exploration: w.Exploration}
	case core.StrategyContentBased:
		rest := w.Interest + w.Difficulty + w.Popularity + w.Recency
		if rest <= 0 {
			return Weights{Exploration: w.Exploration}
		}
		scale := mass / rest
		return Weights{
			Interest:    w.Interest * scale,
			Difficulty:  w.Difficulty * scale,
			Popularity:  w.Popularity * scale,
			Recency:     w.Recency * scale,
			Exploration: w.Exploration,
		}
	default:
		return w
	}
}

// Apply 计算信号向量在该权重下的加权和（不含探索项，不截断）。
func (w Weights) Apply(v SignalVector) float64 {
	return v.Interest*w.Interest +
		v.Difficulty*w.Difficulty +
		v.Popularity*w.Popularity +
		v.Collaborative*w.Collaborative +
		v.Recency*w.Recency
}

// ExplorationNoise 是有界探索噪声：从 (userID, contentID, requestID) 确定性
// 推导种子，取 [0, max] 内的均匀值。不取墙钟/全局熵源——同一请求重放必须
// 得到完全一致的结果。
func ExplorationNoise(userID, contentID, requestID string, max float64) float64 {
	if max <= 0 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(contentID))
	h.Write([]byte{0})
	h.Write([]byte(requestID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return rng.Float64() * max
}

// Blender 把信号向量混成单一分数并产出 reason tag。
type Blender struct {
	// Base 是 hybrid 基准权重，策略变体由它派生
	Base Weights

	// ReasonThreshold 信号达到该值才产出对应 reason tag，默认 0.5
	ReasonThreshold float64

	// MaxReasons 每条推荐的 reason tag 上限，默认 3
	MaxReasons int

	// MaxInterestReasons 兴趣命中标签的输出上限，默认 2
	MaxInterestReasons int
}

// NewBlender 创建 Blender，零值配置回落到默认。
func NewBlender(base Weights) *Blender {
	if base.signalSum() <= 0 {
		base = DefaultWeights()
	}
	return &Blender{
		Base:               base,
		ReasonThreshold:    0.5,
		MaxReasons:         3,
		MaxInterestReasons: 2,
	}
}

// Blend 计算最终分数与 reason tag。
// 返回分数已截断到 [0,1]；tags 纯解释用途，不参与排序。
func (b *Blender) Blend(
	v SignalVector,
	user *core.User,
	content *core.Content,
	rctx *core.RecommendContext,
) (float64, []string) {
	w := b.Base.ForStrategy(rctx.Strategy)

	score := w.Apply(v) + ExplorationNoise(rctx.UserID, content.ID, rctx.RequestID, w.Exploration)
	score = clamp01(score)

	return score, b.reasons(v, w, user, content)
}

// reasons 按"权重非零且信号过阈值"的分量产出解释标签：
//   - 兴趣：命中的兴趣标签（按用户兴趣声明顺序，保证确定性）
//   - 协同：固定标签 popular_with_similar_users
//   - 全部未过阈值时回落到 recommended_for_you
func (b *Blender) reasons(v SignalVector, w Weights, user *core.User, content *core.Content) []string {
	threshold := b.ReasonThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	maxReasons := b.MaxReasons
	if maxReasons <= 0 {
		maxReasons = 3
	}
	maxInterest := b.MaxInterestReasons
	if maxInterest <= 0 {
		maxInterest = 2
	}

	tags := make([]string, 0, maxReasons)
	if w.Interest > 0 && v.Interest >= threshold && user != nil {
		n := 0
		for _, interest := range user.Interests {
			if n >= maxInterest || len(tags) >= maxReasons {
				break
			}
			if content.HasTag(interest) {
				tags = append(tags, interest)
				n++
			}
		}
	}
	if w.Collaborative > 0 && v.Collaborative >= threshold && len(tags) < maxReasons {
		tags = append(tags, "popular_with_similar_users")
	}
	if len(tags) == 0 {
		tags = append(tags, "recommended_for_you")
	}
	return tags
}
