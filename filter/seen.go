package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// SeenFilter 过滤掉用户已经看过的书。
// 已看集合来自 rctx.User（由浏览历史聚合得到）；
// 没有画像时不过滤任何书。
type SeenFilter struct{}

func NewSeenFilter() *SeenFilter {
	return &SeenFilter{}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || rctx.User == nil {
		return false, nil
	}
	return rctx.User.HasSeen(item.ID), nil
}
