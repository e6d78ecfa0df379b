package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/service"
)

// Server 是 HTTP 接入层：参数解析、领域错误到状态码的映射、JSON 编码。
// 业务全部在 service 层，这里不写业务逻辑。
type Server struct {
	recommender *service.Recommender
	ingestor    *service.Ingestor
	analytics   *service.Analytics
	catalog     *service.Catalog
	hub         *Hub
	repo        core.Repository
	log         zerolog.Logger
}

func New(
	recommender *service.Recommender,
	ingestor *service.Ingestor,
	analytics *service.Analytics,
	catalog *service.Catalog,
	hub *Hub,
	repo core.Repository,
	logger zerolog.Logger,
) *Server {
	return &Server{
		recommender: recommender,
		ingestor:    ingestor,
		analytics:   analytics,
		catalog:     catalog,
		hub:         hub,
		repo:        repo,
		log:         logger.With().Str("component", "http").Logger(),
	}
}

// Router 装配全部路由。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/recommend/{userID}", s.handleRecommend)
	r.Post("/events", s.handleLogEvent)
	r.Get("/events/recent", s.handleRecentEvents)
	r.Get("/analytics", s.handleAnalytics)
	r.Get("/analytics/user/{userID}", s.handleUserAnalytics)
	r.Get("/users", s.handleUsers)
	r.Get("/content", s.handleContent)
	if s.hub != nil {
		r.Get("/ws", s.hub.ServeWS)
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "dhiksha",
		"version": service.ModelVersion,
		"endpoints": map[string]string{
			"recommend": "/recommend/{user_id}",
			"events":    "/events",
			"analytics": "/analytics",
			"users":     "/users",
			"content":   "/content",
			"health":    "/health",
			"websocket": "/ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.repo.Snapshot(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   service.ModelVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database": map[string]int{
			"users":   snap.UserCount(),
			"content": snap.ContentCount(),
			"events":  snap.EventCount(),
		},
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	k := queryInt(r, "k", 0)
	strategy := r.URL.Query().Get("strategy")

	result, err := s.recommender.Recommend(r.Context(), userID, k, strategy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLogEvent(w http.ResponseWriter, r *http.Request) {
	var in service.EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	ev, err := s.ingestor.LogEvent(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_id":  ev.ID,
		"status":    "success",
		"timestamp": ev.Timestamp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	rows, err := s.catalog.RecentEvents(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": rows, "count": len(rows)})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	overview, err := s.analytics.Overview(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleUserAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	out, err := s.analytics.User(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := s.catalog.Users(r.Context(), queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": rows, "count": len(rows)})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	f := service.ContentFilter{
		Difficulty: core.Difficulty(r.URL.Query().Get("difficulty")),
		Type:       core.ContentType(r.URL.Query().Get("content_type")),
	}
	rows, err := s.catalog.Contents(r.Context(), f, queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": rows, "count": len(rows)})
}

// writeError 把领域错误映射到 HTTP 状态码：
// 用户/内容不存在 404，策略或入参非法 400，存储不可用 503，其余 500。
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsUserNotFound(err), core.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case core.IsInvalidStrategy(err), isInvalidInput(err):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case core.IsUnavailable(err):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	default:
		s.log.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func isInvalidInput(err error) bool {
	if de := core.GetDomainError(err); de != nil {
		return de.Code == core.ErrorCodeInvalidInput
	}
	return false
}

func errorBody(detail string) map[string]string {
	return map[string]string{"detail": detail}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
