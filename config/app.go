package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jayanthansenthilkumar/Dhiksha/rank"
)

// App 是服务进程的顶层配置。零值可用，字段均有默认值。
type App struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Store struct {
		// Driver 取 memory 或 sqlite
		Driver string `yaml:"driver"`
		// DSN 是 sqlite 的库文件路径
		DSN string `yaml:"dsn"`
		// Seed 为 true 时向空库装入样例数据
		Seed bool `yaml:"seed"`
	} `yaml:"store"`

	Redis struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		DB      int    `yaml:"db"`
	} `yaml:"redis"`

	Recommend struct {
		DefaultK              int          `yaml:"default_k"`
		MaxK                  int          `yaml:"max_k"`
		RejectUnknownStrategy bool         `yaml:"reject_unknown_strategy"`
		CandidateMultiplier   int          `yaml:"candidate_multiplier"`
		Weights               rank.Weights `yaml:"weights"`

		DifficultyDecay     float64  `yaml:"difficulty_decay"`
		RecencyHalfLifeDays float64  `yaml:"recency_half_life_days"`
		QuizThreshold       float64  `yaml:"quiz_threshold"`
		SimilarUserLimit    int      `yaml:"similar_user_limit"`
		BlacklistContentIDs []string `yaml:"blacklist_content_ids"`
		// RuleExpr 是 CEL 过滤表达式，命中的候选被剔除；空表示不启用
		RuleExpr string `yaml:"rule_expr"`
	} `yaml:"recommend"`

	Log struct {
		// Level 取 zerolog 级别名：debug/info/warn/error
		Level string `yaml:"level"`
		// Pretty 为 true 时输出控制台友好格式
		Pretty bool `yaml:"pretty"`
	} `yaml:"log"`
}

// DefaultApp 返回带默认值的配置。
func DefaultApp() *App {
	app := &App{}
	app.Server.Addr = ":8000"
	app.Store.Driver = "memory"
	app.Store.DSN = "dhiksha.db"
	app.Store.Seed = true
	app.Redis.Addr = "127.0.0.1:6379"
	app.Recommend.DefaultK = 10
	app.Recommend.MaxK = 50
	app.Recommend.Weights = rank.DefaultWeights()
	app.Log.Level = "info"
	return app
}

// LoadApp 从 YAML 文件加载配置；path 为空时返回默认配置。
// 文件中省略的字段保持默认值。
func LoadApp(path string) (*App, error) {
	app := DefaultApp()
	if path == "" {
		return app, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, app); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

// Validate 检查配置的取值合法性。
func (a *App) Validate() error {
	switch a.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q (supported: memory, sqlite)", a.Store.Driver)
	}
	if a.Recommend.DefaultK < 0 || a.Recommend.MaxK < 0 {
		return fmt.Errorf("k bounds must be non-negative")
	}
	if a.Recommend.DefaultK > 0 && a.Recommend.MaxK > 0 && a.Recommend.DefaultK > a.Recommend.MaxK {
		return fmt.Errorf("default_k %d exceeds max_k %d", a.Recommend.DefaultK, a.Recommend.MaxK)
	}
	return nil
}
