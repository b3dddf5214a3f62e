package builders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

const personalYAML = `
pipeline:
  name: personal
  nodes:
    - type: recall.candidates
    - type: filter
      config:
        filters:
          - type: seen
          - type: blacklist
            item_ids: ["b5"]
          - type: expr
            expr: '"horor" in book.genres'
    - type: rank.personal
      config:
        weights:
          genre_affinity: 1
          popularity: 0
          recency: 0
    - type: rerank.genre_diversity
      config:
        max_per_genre: 2
    - type: rerank.topn
      config:
        n: 3
`

func testCorpus() core.Corpus {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	books := core.Corpus{}
	genres := []string{"fantasy", "fantasy", "fantasy", "sains", "fantasy", "horor", "sains"}
	for i, g := range genres {
		books = append(books, core.Book{
			ID:         fmt.Sprintf("b%d", i),
			Title:      fmt.Sprintf("Buku %d", i),
			Genres:     []string{g},
			Popularity: int64(i),
			CreatedAt:  now,
		})
	}
	return books
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(personalYAML))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	p, err := cfg.BuildPipeline(NewFactory(Deps{}))
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if len(p.Nodes) != 5 {
		t.Fatalf("nodes = %d, want 5", len(p.Nodes))
	}

	corpus := testCorpus()
	profile := core.BuildUserProfile("u1", []core.View{{BookID: "b0", Count: 3}}, corpus)
	rctx := &core.RecommendContext{UserID: "u1", User: profile, Corpus: corpus}

	items, err := p.Run(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := ""
	for _, it := range items {
		got += it.ID + " "
	}
	// b0 已看、b5 黑名单、horor 被表达式移除；fantasy 每类最多 2 本排在前面
	if want := "b1 b2 b3 "; got != want {
		t.Errorf("Run() = %q, want %q", got, want)
	}
}

func TestBuilders_Errors(t *testing.T) {
	f := NewFactory(Deps{})
	tests := []struct {
		name     string
		nodeType string
		cfg      map[string]any
	}{
		{name: "unknown filter", nodeType: "filter", cfg: map[string]any{"filters": []any{map[string]any{"type": "nope"}}}},
		{name: "missing filters", nodeType: "filter", cfg: map[string]any{}},
		{name: "bad expression", nodeType: "filter", cfg: map[string]any{"filters": []any{map[string]any{"type": "expr", "expr": "book.("}}}},
		{name: "history without store", nodeType: "recall.user_history", cfg: nil},
		{name: "unknown fanout source", nodeType: "recall.fanout", cfg: map[string]any{"sources": []any{map[string]any{"type": "ann"}}}},
		{name: "unknown merge strategy", nodeType: "recall.fanout", cfg: map[string]any{"sources": []any{}, "merge_strategy": "zip"}},
		{name: "negative weight", nodeType: "rank.personal", cfg: map[string]any{"weights": map[string]any{"recency": -1}}},
		{name: "min greater than max", nodeType: "rerank.topn", cfg: map[string]any{"min": 20, "max": 10}},
		{name: "unknown type", nodeType: "rank.dnn", cfg: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Build(tt.nodeType, tt.cfg); err == nil {
				t.Errorf("Build(%s) error = nil, want error", tt.nodeType)
			}
		})
	}
}

func TestBuildFanout(t *testing.T) {
	n, err := NewFactory(Deps{}).Build("recall.fanout", map[string]any{
		"sources": []any{
			map[string]any{"type": "popular"},
			map[string]any{"type": "candidates", "limit": 2},
		},
		"timeout_ms": 200,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	items, err := n.Process(context.Background(), &core.RecommendContext{Corpus: testCorpus()}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != len(testCorpus()) {
		t.Errorf("fanout items = %d, want %d (deduplicated)", len(items), len(testCorpus()))
	}
}

func TestInitRegistersBuiltins(t *testing.T) {
	types := config.SupportedTypes()
	for name := range Builders(Deps{}) {
		found := false
		for _, typ := range types {
			if typ == name {
				found = true
			}
		}
		if !found {
			t.Errorf("%s not registered (supported: %v)", name, types)
		}
	}

	cfg, _ := pipeline.ParseYAML([]byte(personalYAML))
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Errorf("ValidatePipelineConfig() error = %v", err)
	}
	if _, err := cfg.BuildPipeline(config.DefaultFactory()); err != nil {
		t.Errorf("BuildPipeline(DefaultFactory) error = %v", err)
	}
}
