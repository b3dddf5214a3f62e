package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
)

// Source 表示一个可复用的召回源（候选全集/相似/热门/...）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// sortItemsByScore 按分数稳定降序。
func sortItemsByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
