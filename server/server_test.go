package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/filter"
	"github.com/jayanthansenthilkumar/Dhiksha/pipeline"
	"github.com/jayanthansenthilkumar/Dhiksha/rank"
	"github.com/jayanthansenthilkumar/Dhiksha/recall"
	"github.com/jayanthansenthilkumar/Dhiksha/rerank"
	"github.com/jayanthansenthilkumar/Dhiksha/service"
	"github.com/jayanthansenthilkumar/Dhiksha/store"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Now()
	repo := store.NewMemoryRepository()
	repo.Load(
		[]*core.User{
			{ID: "u1", Name: "One", SkillLevel: core.SkillNovice, Interests: []string{"python"}},
		},
		[]*core.Content{
			{ID: "c1", Title: "Python Basics", Tags: []string{"python"}, Difficulty: core.DifficultyBeginner, Popularity: 0.8, Type: core.ContentCourse},
			{ID: "c2", Title: "Cloud Ops", Tags: []string{"cloud"}, Difficulty: core.DifficultyAdvanced, Popularity: 0.3, Type: core.ContentVideo},
		},
		[]*core.Event{
			{ID: "e1", UserID: "u1", ContentID: "c1", Type: core.EventView, Timestamp: now.Add(-time.Hour)},
		},
	)
	t.Cleanup(func() { repo.Close() })

	pipe := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Generator{Sources: []recall.Source{&recall.InterestRecall{}, &recall.Hot{}}},
			rank.NewScoreNode(rank.NewScorer(rank.DefaultScorerConfig()), rank.NewBlender(rank.DefaultWeights()), zerolog.Nop()),
			&filter.Node{Filters: []filter.Filter{&filter.Completed{}}},
			&rerank.TopN{},
		},
	}

	logger := zerolog.Nop()
	srv := New(
		service.NewRecommender(repo, pipe, logger),
		service.NewIngestor(repo, nil, logger),
		service.NewAnalytics(repo),
		service.NewCatalog(repo),
		nil,
		repo,
		logger,
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body
}

func TestRecommendEndpoint(t *testing.T) {
	ts := testServer(t)

	body := getJSON(t, ts.URL+"/recommend/u1?k=5&strategy=hybrid", http.StatusOK)
	if body["user_id"] != "u1" || body["strategy"] != "hybrid" || body["model_version"] != service.ModelVersion {
		t.Errorf("body = %v", body)
	}
	recs, ok := body["recommendations"].([]any)
	if !ok || len(recs) == 0 {
		t.Fatalf("recommendations = %v", body["recommendations"])
	}
	first := recs[0].(map[string]any)
	for _, field := range []string{"content_id", "title", "score", "reason_tags", "difficulty", "content_type"} {
		if _, ok := first[field]; !ok {
			t.Errorf("recommendation missing %s: %v", field, first)
		}
	}
}

func TestRecommendEndpointErrors(t *testing.T) {
	ts := testServer(t)
	getJSON(t, ts.URL+"/recommend/ghost", http.StatusNotFound)
}

func TestEventsEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/events", "application/json",
		strings.NewReader(`{"user_id":"u1","content_id":"c2","event_type":"like"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "success" || body["event_id"] == "" {
		t.Errorf("body = %v", body)
	}

	// 非法事件类型 400
	resp2, err := http.Post(ts.URL+"/events", "application/json",
		strings.NewReader(`{"user_id":"u1","content_id":"c2","event_type":"dance"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("bad event type status = %d, want 400", resp2.StatusCode)
	}

	// 未知用户 404
	resp3, err := http.Post(ts.URL+"/events", "application/json",
		strings.NewReader(`{"user_id":"ghost","content_id":"c2","event_type":"view"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", resp3.StatusCode)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := testServer(t)

	body := getJSON(t, ts.URL+"/analytics", http.StatusOK)
	if body["total_users"].(float64) != 1 {
		t.Errorf("total_users = %v", body["total_users"])
	}

	body = getJSON(t, ts.URL+"/analytics/user/u1", http.StatusOK)
	if body["user_id"] != "u1" {
		t.Errorf("user_id = %v", body["user_id"])
	}
	getJSON(t, ts.URL+"/analytics/user/ghost", http.StatusNotFound)
}

func TestListEndpoints(t *testing.T) {
	ts := testServer(t)

	body := getJSON(t, ts.URL+"/users?limit=10", http.StatusOK)
	if body["count"].(float64) != 1 {
		t.Errorf("users count = %v", body["count"])
	}

	body = getJSON(t, ts.URL+"/content?content_type=video", http.StatusOK)
	if body["count"].(float64) != 1 {
		t.Errorf("filtered content count = %v", body["count"])
	}

	body = getJSON(t, ts.URL+"/events/recent?limit=5", http.StatusOK)
	if body["count"].(float64) != 1 {
		t.Errorf("recent events count = %v", body["count"])
	}
}

func TestHealthAndRoot(t *testing.T) {
	ts := testServer(t)

	body := getJSON(t, ts.URL+"/health", http.StatusOK)
	if body["status"] != "healthy" {
		t.Errorf("health = %v", body)
	}
	db := body["database"].(map[string]any)
	if db["users"].(float64) != 1 || db["content"].(float64) != 2 {
		t.Errorf("database counts = %v", db)
	}

	body = getJSON(t, ts.URL+"/", http.StatusOK)
	if body["name"] != "dhiksha" {
		t.Errorf("root = %v", body)
	}
}
