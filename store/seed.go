package store

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// 种子数据的规模与取值范围沿用线上初始化脚本，
// 固定随机种子保证每次生成完全一致，便于复现问题。
const seedRandSource = 20240601

var (
	seedCohorts     = []core.Cohort{core.CohortBeginner, core.CohortIntermediate, core.CohortAdvanced}
	seedSkillLevels = []core.SkillLevel{core.SkillNovice, core.SkillIntermediate, core.SkillExpert}
	seedInterests   = []string{"python", "javascript", "machine-learning", "web-dev", "data-science", "cloud", "devops", "ai"}
	seedTypes       = []core.ContentType{core.ContentVideo, core.ContentArticle, core.ContentCourse, core.ContentTutorial, core.ContentQuiz, core.ContentProject}
	seedDifficulty  = []core.Difficulty{core.DifficultyBeginner, core.DifficultyIntermediate, core.DifficultyAdvanced}
	seedEventTypes  = []core.EventType{core.EventView, core.EventComplete, core.EventLike, core.EventQuizScore, core.EventBookmark, core.EventShare}

	seedTitles = []string{
		"Introduction to Python Programming",
		"Advanced JavaScript Patterns",
		"Machine Learning Fundamentals",
		"React for Beginners",
		"Docker and Kubernetes",
		"Data Structures and Algorithms",
		"Web Development Bootcamp",
		"TensorFlow Deep Learning",
		"System Design Interview Prep",
		"Cloud Computing with AWS",
		"Python Data Science",
		"Node.js Backend Development",
		"Vue.js Complete Guide",
		"DevOps Best Practices",
		"Natural Language Processing",
		"Computer Vision with OpenCV",
		"SQL Database Mastery",
		"MongoDB NoSQL Basics",
		"REST API Design",
		"GraphQL Fundamentals",
	}
)

// SeedData 生成一套确定性的样例数据：100 个用户、200 条内容、5000 条事件。
// now 作为时间基准传入，时间戳相对它倒推。
func SeedData(now time.Time) ([]*core.User, []*core.Content, []*core.Event) {
	rng := rand.New(rand.NewSource(seedRandSource))

	users := make([]*core.User, 0, 100)
	for i := 1; i <= 100; i++ {
		users = append(users, &core.User{
			ID:         fmt.Sprintf("user_%d", i),
			Name:       fmt.Sprintf("User %d", i),
			Email:      fmt.Sprintf("user%d@example.com", i),
			Cohort:     seedCohorts[rng.Intn(len(seedCohorts))],
			SkillLevel: seedSkillLevels[rng.Intn(len(seedSkillLevels))],
			Interests:  sampleStrings(rng, seedInterests, 2+rng.Intn(3)),
			CreatedAt:  now.AddDate(0, 0, -(1 + rng.Intn(365))),
		})
	}

	contents := make([]*core.Content, 0, 200)
	for i := 1; i <= 200; i++ {
		var title string
		if i <= len(seedTitles) {
			title = seedTitles[i-1]
		} else {
			title = seedTitles[rng.Intn(len(seedTitles))]
		}
		contents = append(contents, &core.Content{
			ID:              fmt.Sprintf("content_%d", i),
			Title:           title,
			Description:     "Comprehensive guide to " + strings.ToLower(title),
			Type:            seedTypes[rng.Intn(len(seedTypes))],
			Difficulty:      seedDifficulty[rng.Intn(len(seedDifficulty))],
			Tags:            sampleStrings(rng, seedInterests, 1+rng.Intn(3)),
			DurationMinutes: 10 + rng.Intn(231),
			Popularity:      rng.Float64(),
			CreatedAt:       now.AddDate(0, 0, -(1 + rng.Intn(180))),
		})
	}

	events := make([]*core.Event, 0, 5000)
	for i := 1; i <= 5000; i++ {
		etype := seedEventTypes[rng.Intn(len(seedEventTypes))]
		var value float64
		if etype == core.EventQuizScore {
			value = float64(60 + rng.Intn(41))
		}
		events = append(events, &core.Event{
			ID:        fmt.Sprintf("event_%d", i),
			UserID:    fmt.Sprintf("user_%d", 1+rng.Intn(100)),
			ContentID: fmt.Sprintf("content_%d", 1+rng.Intn(200)),
			Type:      etype,
			Value:     value,
			SessionID: fmt.Sprintf("session_%d", 1+rng.Intn(1000)),
			Timestamp: now.Add(-time.Duration(1+rng.Intn(720)) * time.Hour),
		})
	}

	return users, contents, events
}

// sampleStrings 不重复抽取 n 个元素，保持 pool 原有顺序。
func sampleStrings(rng *rand.Rand, pool []string, n int) []string {
	if n >= len(pool) {
		n = len(pool)
	}
	idx := rng.Perm(len(pool))[:n]
	picked := make(map[int]struct{}, n)
	for _, i := range idx {
		picked[i] = struct{}{}
	}
	out := make([]string, 0, n)
	for i, s := range pool {
		if _, ok := picked[i]; ok {
			out = append(out, s)
		}
	}
	return out
}

// SeedSQLite 向空库装入种子数据，库已有用户则跳过。
func SeedSQLite(ctx context.Context, repo *SQLiteRepository, now time.Time) error {
	n, err := repo.UserCount(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	users, contents, events := SeedData(now)
	for _, u := range users {
		if err := repo.InsertUser(ctx, u); err != nil {
			return err
		}
	}
	for _, c := range contents {
		if err := repo.InsertContent(ctx, c); err != nil {
			return err
		}
	}
	for _, ev := range events {
		if err := repo.AppendEvent(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
