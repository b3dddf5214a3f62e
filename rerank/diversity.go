package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// GenreDiversity 按主类别（书的第一个类别）打散结果：
// 每个主类别最多保留 MaxPerGenre 本在前面，超出的书按原顺序排到末尾（不丢弃），
// 这样截断后的结果类别更分散，候选不足时数量也不受影响。
// 没有类别的书不受限制。
type GenreDiversity struct {
	MaxPerGenre int // 默认 3
}

func (n *GenreDiversity) Name() string {
	return "rerank.genre_diversity"
}

func (n *GenreDiversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *GenreDiversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	limit := n.MaxPerGenre
	if limit <= 0 {
		limit = 3
	}

	counts := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		genres := it.Book.NormalizedGenres()
		if len(genres) == 0 {
			out = append(out, it)
			continue
		}
		primary := genres[0]
		if counts[primary] >= limit {
			overflow = append(overflow, it)
			continue
		}
		counts[primary]++
		out = append(out, it)
	}

	return append(out, overflow...), nil
}
