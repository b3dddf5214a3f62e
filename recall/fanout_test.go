package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

type stubSource struct {
	name  string
	ids   []string
	delay time.Duration
	err   error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Item, 0, len(s.ids))
	for _, id := range s.ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.NewLabel(s.name, "recall"))
		out = append(out, it)
	}
	return out, nil
}

func TestFanout_MergeOrder(t *testing.T) {
	n := &Fanout{
		Dedup: true,
		Sources: []Source{
			&stubSource{name: "slow", ids: []string{"a", "b"}, delay: 20 * time.Millisecond},
			&stubSource{name: "fast", ids: []string{"b", "c"}},
		},
	}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	if len(out) != len(want) {
		t.Fatalf("got %d items, want %d", len(out), len(want))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, out[i].ID, id)
		}
	}
	if got := out[1].Labels["recall_source"].Value; got != "slow|fast" {
		t.Errorf("merged recall_source = %q, want slow|fast", got)
	}
	if got := out[0].Labels["recall_priority"].Value; got != "0" {
		t.Errorf("recall_priority = %q, want 0", got)
	}
}

func TestFanout_UnionAndErrors(t *testing.T) {
	var failed []string
	n := &Fanout{
		MergeStrategy: "union",
		Dedup:         true,
		Timeout:       5 * time.Millisecond,
		MaxConcurrent: 1,
		OnError:       func(s string, _ error) { failed = append(failed, s) },
		Sources: []Source{
			&stubSource{name: "one", ids: []string{"a"}},
			&stubSource{name: "broken", err: errors.New("boom")},
			&stubSource{name: "timeout", ids: []string{"z"}, delay: time.Second},
			&stubSource{name: "two", ids: []string{"a"}},
		},
	}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("union got %d items, want 2", len(out))
	}
	if len(failed) != 2 {
		t.Errorf("failed sources = %v, want broken and timeout", failed)
	}
}

func TestFanout_Empty(t *testing.T) {
	out, err := (&Fanout{}).Process(context.Background(), nil, nil)
	if err != nil || out != nil {
		t.Errorf("Process() = %v, %v", out, err)
	}
}
