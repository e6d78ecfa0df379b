package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayanthansenthilkumar/Dhiksha/config"
	_ "github.com/jayanthansenthilkumar/Dhiksha/config/builders" // 注册配置驱动的 Node 构建器
	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/filter"
	"github.com/jayanthansenthilkumar/Dhiksha/pipeline"
	"github.com/jayanthansenthilkumar/Dhiksha/rank"
	"github.com/jayanthansenthilkumar/Dhiksha/recall"
	"github.com/jayanthansenthilkumar/Dhiksha/rerank"
	"github.com/jayanthansenthilkumar/Dhiksha/server"
	"github.com/jayanthansenthilkumar/Dhiksha/service"
	"github.com/jayanthansenthilkumar/Dhiksha/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadApp(*configPath)
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("exit")
	}
}

func newLogger(cfg *config.App) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func run(cfg *config.App, logger zerolog.Logger) error {
	ctx := context.Background()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	kv, err := openKV(cfg, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	hub := server.NewHub(logger)
	go hub.Run()

	pipe := buildPipeline(cfg, kv, logger)

	recommender := service.NewRecommender(repo, pipe, logger,
		service.WithBroadcaster(hub),
		service.WithStrategyRejection(cfg.Recommend.RejectUnknownStrategy),
		service.WithKBounds(cfg.Recommend.DefaultK, cfg.Recommend.MaxK),
	)
	ingestor := service.NewIngestor(repo, kv, logger, service.WithIngestBroadcaster(hub))
	analytics := service.NewAnalytics(repo)
	catalog := service.NewCatalog(repo)

	srv := server.New(recommender, ingestor, analytics, catalog, hub, repo, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func openRepository(ctx context.Context, cfg *config.App, logger zerolog.Logger) (core.Repository, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		repo, err := store.OpenSQLite(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Store.Seed {
			if err := store.SeedSQLite(ctx, repo, time.Now()); err != nil {
				repo.Close()
				return nil, err
			}
		}
		logger.Info().Str("dsn", cfg.Store.DSN).Msg("sqlite repository ready")
		return repo, nil
	default:
		repo := store.NewMemoryRepository()
		if cfg.Store.Seed {
			users, contents, events := store.SeedData(time.Now())
			repo.Load(users, contents, events)
		}
		logger.Info().Msg("memory repository ready")
		return repo, nil
	}
}

func openKV(cfg *config.App, logger zerolog.Logger) (core.KeyValueStore, error) {
	if cfg.Redis.Enabled {
		kv, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis store ready")
		return kv, nil
	}
	return store.NewMemoryStore(), nil
}

func buildPipeline(cfg *config.App, kv core.KeyValueStore, logger zerolog.Logger) *pipeline.Pipeline {
	scorerCfg := rank.DefaultScorerConfig()
	if cfg.Recommend.DifficultyDecay > 0 {
		scorerCfg.DifficultyDecay = cfg.Recommend.DifficultyDecay
	}
	if cfg.Recommend.RecencyHalfLifeDays > 0 {
		scorerCfg.RecencyHalfLife = time.Duration(cfg.Recommend.RecencyHalfLifeDays * 24 * float64(time.Hour))
	}
	if cfg.Recommend.QuizThreshold > 0 {
		scorerCfg.QuizThreshold = cfg.Recommend.QuizThreshold
	}
	if cfg.Recommend.SimilarUserLimit > 0 {
		scorerCfg.SimilarUserLimit = cfg.Recommend.SimilarUserLimit
	}

	filters := []filter.Filter{&filter.Completed{}}
	if len(cfg.Recommend.BlacklistContentIDs) > 0 {
		filters = append(filters, &filter.Blacklist{ContentIDs: cfg.Recommend.BlacklistContentIDs, Store: kv})
	}
	if cfg.Recommend.RuleExpr != "" {
		rule, err := filter.NewRule(cfg.Recommend.RuleExpr)
		if err != nil {
			logger.Warn().Err(err).Msg("rule filter disabled: bad expression")
		} else {
			filters = append(filters, rule)
		}
	}

	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Generator{
				Sources: []recall.Source{
					&recall.InterestRecall{},
					&recall.CollaborativeRecall{SimilarUserLimit: scorerCfg.SimilarUserLimit},
					&recall.Hot{Store: kv},
				},
				Backstop:            &recall.Hot{Store: kv},
				CandidateMultiplier: cfg.Recommend.CandidateMultiplier,
			},
			rank.NewScoreNode(rank.NewScorer(scorerCfg), rank.NewBlender(cfg.Recommend.Weights), logger),
			&filter.Node{Filters: filters},
			&rerank.TopN{},
		},
	}
}
