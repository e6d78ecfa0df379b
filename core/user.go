package core

import "time"

// SkillLevel 是学习者的技能水平。
type SkillLevel string

const (
	SkillNovice       SkillLevel = "novice"
	SkillIntermediate SkillLevel = "intermediate"
	SkillExpert       SkillLevel = "expert"
)

// Cohort 是学习者所属的分层标签（按内容难度维度划分）。
type Cohort string

const (
	CohortBeginner     Cohort = "beginner"
	CohortIntermediate Cohort = "intermediate"
	CohortAdvanced     Cohort = "advanced"
)

// User 是学习者画像。
//
// 设计要点：
//   - Interests 保持有序（种子/注册时的顺序），用于 reason tag 的确定性输出
//   - LastActive 由事件采集侧更新，核心推荐链路只读
//   - 核心链路不会删除用户（软删除属于外部关注点）
type User struct {
	ID         string     `json:"user_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Cohort     Cohort     `json:"cohort_tag"`
	SkillLevel SkillLevel `json:"skill_level"`
	Interests  []string   `json:"interests"`
	CreatedAt  time.Time  `json:"created_at"`
	LastActive time.Time  `json:"last_active,omitempty"`
}

// PreferredDifficulty 返回技能水平对应的首选内容难度。
// novice → beginner、intermediate → intermediate、expert → advanced。
func (u *User) PreferredDifficulty() Difficulty {
	switch u.SkillLevel {
	case SkillNovice:
		return DifficultyBeginner
	case SkillExpert:
		return DifficultyAdvanced
	default:
		return DifficultyIntermediate
	}
}

// HasInterest 检查用户兴趣中是否包含某个标签。
func (u *User) HasInterest(tag string) bool {
	for _, t := range u.Interests {
		if t == tag {
			return true
		}
	}
	return false
}
