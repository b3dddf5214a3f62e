package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：
// 召回候选 → 过滤已看 → 个性化打分 → 截断。
type Pipeline struct {
	Nodes []Node

	// Observer 在每个 Node 执行后被调用（可选），用于打点/日志
	Observer func(node Node, in, out int)
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if node == nil {
			continue
		}
		in := len(cur)
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		if p.Observer != nil {
			p.Observer(node, in, len(next))
		}
		cur = next
	}
	return cur, nil
}
