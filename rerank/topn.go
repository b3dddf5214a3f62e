package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
//
// 数量来源优先级：
//   - 请求参数 rctx.Params["count"]
//   - N
//
// 设置了 Min/Max 时数量会被限制在 [Min, Max]（个性化推荐为 [10, 20]）。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.PersonalNode{...},                // 排序
//	        &rerank.GenreDiversity{MaxPerGenre: 3}, // 多样性重排
//	        &rerank.TopNNode{N: 10, Min: 10, Max: 20},
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量；N <= 0 且没有请求参数时不截断
	N int

	Min int
	Max int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

// Limit 计算本次请求的截断数量，<= 0 表示不截断。
func (n *TopNNode) Limit(rctx *core.RecommendContext) int {
	limit := n.N
	if rctx != nil {
		limit = conv.ConfigGetInt(rctx.Params, "count", limit)
	}
	if n.Min > 0 || n.Max > 0 {
		lo, hi := n.Min, n.Max
		if hi < lo {
			hi = lo
		}
		if lo <= 0 {
			lo = 1
		}
		limit = core.ClampCount(limit, lo, hi)
	}
	return limit
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.Limit(rctx)
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
