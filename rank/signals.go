package rank

import (
	"math"
	"time"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// 信号名常量：Item.Signals 的 key，也是权重向量的维度名。
const (
	SignalInterest      = "interest"
	SignalDifficulty    = "difficulty"
	SignalPopularity    = "popularity"
	SignalCollaborative = "collaborative"
	SignalRecency       = "recency"
)

// ScorerConfig 是信号计算的全部常量。衰减曲线与阈值都是配置而非魔数：
// 难度用线性衰减（每差一级扣 DifficultyDecay），新鲜度用指数半衰期。
type ScorerConfig struct {
	// DifficultyDecay 每差一级难度扣掉的分数，默认 0.25
	DifficultyDecay float64

	// RecencyHalfLife 新鲜度半衰期，默认 30 天
	RecencyHalfLife time.Duration

	// QuizThreshold quiz_score 计入正向交互的最低分数，默认 80
	QuizThreshold float64

	// SimilarUserLimit 协同信号考虑的相似用户上限，默认 10
	SimilarUserLimit int
}

// DefaultScorerConfig 返回默认信号配置。
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		DifficultyDecay:  0.25,
		RecencyHalfLife:  30 * 24 * time.Hour,
		QuizThreshold:    80,
		SimilarUserLimit: 10,
	}
}

func (c ScorerConfig) withDefaults() ScorerConfig {
	def := DefaultScorerConfig()
	if c.DifficultyDecay <= 0 {
		c.DifficultyDecay = def.DifficultyDecay
	}
	if c.RecencyHalfLife <= 0 {
		c.RecencyHalfLife = def.RecencyHalfLife
	}
	if c.QuizThreshold <= 0 {
		c.QuizThreshold = def.QuizThreshold
	}
	if c.SimilarUserLimit <= 0 {
		c.SimilarUserLimit = def.SimilarUserLimit
	}
	return c
}

// SignalVector 是单个候选的五路信号，每个分量都在 [0,1]。
type SignalVector struct {
	Interest      float64
	Difficulty    float64
	Popularity    float64
	Collaborative float64
	Recency       float64
}

// Scorer 计算五路信号。所有方法都是固定时间戳下的纯函数：
// 输入相同（快照 + 用户 + 内容 + Now）输出必然相同，便于确定性测试。
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer 创建信号计算器，零值配置项回落到默认值。
func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg.withDefaults()}
}

// Config 返回生效的配置。
func (s *Scorer) Config() ScorerConfig { return s.cfg }

// Score 计算一个候选的完整信号向量。
// similar 是预先算好的相似用户集合（一次请求算一次，逐候选复用）。
func (s *Scorer) Score(
	user *core.User,
	content *core.Content,
	snap *core.Snapshot,
	similar []string,
	now time.Time,
) SignalVector {
	return SignalVector{
		Interest:      InterestScore(user, content),
		Difficulty:    DifficultyScore(user, content, s.cfg.DifficultyDecay),
		Popularity:    PopularityScore(content),
		Collaborative: s.collaborativeScore(content, snap, similar),
		Recency:       RecencyScore(content.ID, snap, now, s.cfg.RecencyHalfLife),
	}
}

// InterestScore 是兴趣对齐度：候选标签中出现在用户兴趣里的比例。
// 用户无兴趣或内容无标签时为 0。
func InterestScore(user *core.User, content *core.Content) float64 {
	if user == nil || len(user.Interests) == 0 || len(content.Tags) == 0 {
		return 0
	}
	matched := 0
	for _, tag := range content.Tags {
		if user.HasInterest(tag) {
			matched++
		}
	}
	return float64(matched) / float64(len(content.Tags))
}

// DifficultyScore 是难度匹配度：完全匹配 1.0，每差一级线性扣 decay，下限 0。
func DifficultyScore(user *core.User, content *core.Content, decay float64) float64 {
	if user == nil {
		return 0
	}
	dist := core.DifficultyDistance(user.PreferredDifficulty(), content.Difficulty)
	score := 1.0 - decay*float64(dist)
	if score < 0 {
		return 0
	}
	return score
}

// PopularityScore 透传外部聚合任务维护的热度分，防御性钳位到 [0,1]。
func PopularityScore(content *core.Content) float64 {
	return clamp01(content.Popularity)
}

// collaborativeScore 是协同亲和度：正向交互过该候选的相似用户占比。
// 相似用户集合为空时为 0。
func (s *Scorer) collaborativeScore(content *core.Content, snap *core.Snapshot, similar []string) float64 {
	if len(similar) == 0 || snap == nil {
		return 0
	}
	positive := make(map[string]struct{})
	for _, ev := range snap.EventsByContent(content.ID) {
		if ev.IsPositive(s.cfg.QuizThreshold) {
			positive[ev.UserID] = struct{}{}
		}
	}
	if len(positive) == 0 {
		return 0
	}
	count := 0
	for _, uid := range similar {
		if _, ok := positive[uid]; ok {
			count++
		}
	}
	return float64(count) / float64(len(similar))
}

// RecencyScore 是新鲜度：按全平台最新一条事件的年龄做指数半衰期衰减，
// 0.5^(age/halfLife)。没有任何事件的内容为 0（既不加成也不惩罚）。
// 事件可能乱序到达，这里只看时间戳，不看入库顺序。
func RecencyScore(contentID string, snap *core.Snapshot, now time.Time, halfLife time.Duration) float64 {
	if snap == nil || halfLife <= 0 {
		return 0
	}
	last, ok := snap.LastEventAt(contentID)
	if !ok {
		return 0
	}
	age := now.Sub(last)
	if age <= 0 {
		return 1
	}
	return clamp01(math.Pow(0.5, float64(age)/float64(halfLife)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
