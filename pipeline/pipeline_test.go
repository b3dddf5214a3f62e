package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rushteam/bookrec/core"
)

type appendNode struct {
	id  string
	err error
}

func (n *appendNode) Name() string { return "append." + n.id }
func (n *appendNode) Kind() Kind   { return KindRecall }
func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipeline_Run(t *testing.T) {
	var observed []string
	p := &Pipeline{
		Nodes: []Node{&appendNode{id: "a"}, nil, &appendNode{id: "b"}},
		Observer: func(n Node, in, out int) {
			observed = append(observed, n.Name())
			if out != in+1 {
				t.Errorf("%s: in=%d out=%d", n.Name(), in, out)
			}
		},
	}
	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Errorf("items = %v", items)
	}
	if want := []string{"append.a", "append.b"}; !reflect.DeepEqual(observed, want) {
		t.Errorf("observed = %v, want %v", observed, want)
	}
}

func TestPipeline_RunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{id: "a"}, &appendNode{id: "x", err: boom}}}
	_, err := p.Run(context.Background(), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want wrapped boom", err)
	}
	if err.Error() != "node append.x: boom" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestConfig_BuildPipeline(t *testing.T) {
	f := NewNodeFactory()
	f.Register("append", func(cfg map[string]any) (Node, error) {
		id, _ := cfg["id"].(string)
		return &appendNode{id: id}, nil
	})

	yamlCfg, err := ParseYAML([]byte(`
pipeline:
  name: demo
  nodes:
    - type: append
      config: {id: a}
    - type: append
      config: {id: b}
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if yamlCfg.Pipeline.Name != "demo" || len(yamlCfg.Pipeline.Nodes) != 2 {
		t.Fatalf("config = %+v", yamlCfg)
	}
	p, err := yamlCfg.BuildPipeline(f)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	items, _ := p.Run(context.Background(), nil, nil)
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}

	path := filepath.Join(t.TempDir(), "p.json")
	if err := os.WriteFile(path, []byte(`{"pipeline":{"name":"j","nodes":[{"type":"missing"}]}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	jsonCfg, err := LoadFromJSON(path)
	if err != nil {
		t.Fatalf("LoadFromJSON() error = %v", err)
	}
	if _, err := jsonCfg.BuildPipeline(f); err == nil {
		t.Error("BuildPipeline() with unknown type error = nil")
	}
	if got := f.Types(); !reflect.DeepEqual(got, []string{"append"}) {
		t.Errorf("Types() = %v", got)
	}
}
