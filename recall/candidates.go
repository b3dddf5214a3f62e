package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Candidates 把请求上下文中的整个目录快照作为候选集。
// 个性化链路的第一步：后续由过滤节点去掉已看，排序节点打分。
// ID 重复的书只保留第一次出现。
type Candidates struct {
	// Limit 限制候选数量（<= 0 不限制）
	Limit int
}

func (r *Candidates) Name() string        { return "recall.candidates" }
func (r *Candidates) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Candidates) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Candidates) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}
	n := len(rctx.Corpus)
	if r.Limit > 0 && r.Limit < n {
		n = r.Limit
	}
	out := make([]*core.Item, 0, n)
	seen := make(map[string]struct{}, n)
	for _, b := range rctx.Corpus[:n] {
		if b.ID == "" {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		it := core.NewBookItem(b)
		it.PutLabel(utils.LabelRecallSource, utils.NewLabel("candidates", "recall"))
		out = append(out, it)
	}
	return out, nil
}
