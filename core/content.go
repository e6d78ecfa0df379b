package core

import "time"

// ContentType 是学习内容的形态。
type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentArticle  ContentType = "article"
	ContentCourse   ContentType = "course"
	ContentTutorial ContentType = "tutorial"
	ContentQuiz     ContentType = "quiz"
	ContentProject  ContentType = "project"
)

// Difficulty 是内容难度，三档有序。
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Ordinal 返回难度的序数（beginner=1 ... advanced=3），用于距离计算。
// 未知难度按 intermediate 处理。
func (d Difficulty) Ordinal() int {
	switch d {
	case DifficultyBeginner:
		return 1
	case DifficultyAdvanced:
		return 3
	default:
		return 2
	}
}

// DifficultyDistance 返回两档难度之间的距离（0/1/2）。
func DifficultyDistance(a, b Difficulty) int {
	d := a.Ordinal() - b.Ordinal()
	if d < 0 {
		d = -d
	}
	return d
}

// Content 是一条学习内容的元信息。
//
// Popularity 由外部聚合任务维护并归一化到 [0,1]，推荐核心只读；
// 在单次推荐调用内 Content 视为不可变。
type Content struct {
	ID              string      `json:"content_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Type            ContentType `json:"content_type"`
	Difficulty      Difficulty  `json:"difficulty"`
	Tags            []string    `json:"tags"`
	DurationMinutes int         `json:"duration_minutes"`
	Popularity      float64     `json:"popularity_score"`
	CreatedAt       time.Time   `json:"created_at"`
}

// HasTag 检查内容是否带有某个标签。
func (c *Content) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
