package builders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jayanthansenthilkumar/Dhiksha/config"
	"github.com/jayanthansenthilkumar/Dhiksha/pipeline"
)

const pipelineYAML = `
pipeline:
  name: learning-feed
  nodes:
    - type: recall.candidates
      config:
        candidate_multiplier: 3
        sources:
          - type: interest
          - type: collaborative
            similar_user_limit: 10
          - type: hot
            top_n: 50
    - type: rank.score
      config:
        quiz_threshold: 80
        weights:
          interest: 0.30
          difficulty: 0.20
          popularity: 0.15
          collaborative: 0.20
          recency: 0.10
          exploration: 0.05
    - type: filter
      config:
        filters:
          - type: completed
          - type: blacklist
            content_ids: [banned_1]
          - type: rule
            expr: 'item.signals.popularity < 0.01'
    - type: rerank.topn
      config:
        n: 10
`

func TestBuildPipelineFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(pipelineYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatal(err)
	}
	pipe, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatal(err)
	}
	if len(pipe.Nodes) != 4 {
		t.Fatalf("built %d nodes, want 4", len(pipe.Nodes))
	}
	wantKinds := []pipeline.Kind{pipeline.KindRecall, pipeline.KindRank, pipeline.KindFilter, pipeline.KindReRank}
	for i, node := range pipe.Nodes {
		if node.Kind() != wantKinds[i] {
			t.Errorf("node %d kind = %s, want %s", i, node.Kind(), wantKinds[i])
		}
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.quantum"}}
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Error("unknown node type accepted")
	}
}

func TestBuildFilterNodeBadRule(t *testing.T) {
	_, err := BuildFilterNode(map[string]any{
		"filters": []any{
			map[string]any{"type": "rule", "expr": "((("},
		},
	})
	if err == nil {
		t.Error("bad rule expression accepted")
	}
}
