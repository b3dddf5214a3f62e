package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/conv"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的书。
// 黑名单有两个来源：
//   - ItemIDs：静态配置
//   - 请求参数 ParamKey（默认 "exclude"）：[]string 或 []any
type BlacklistFilter struct {
	ItemIDs  []string
	ParamKey string

	ids map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string) *BlacklistFilter {
	f := &BlacklistFilter{ItemIDs: itemIDs, ParamKey: "exclude"}
	f.ids = make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		f.ids[id] = struct{}{}
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	if f.ids != nil {
		if _, ok := f.ids[item.ID]; ok {
			return true, nil
		}
	} else {
		for _, id := range f.ItemIDs {
			if item.ID == id {
				return true, nil
			}
		}
	}

	if rctx != nil && f.ParamKey != "" {
		v, ok := rctx.Param(f.ParamKey)
		if !ok {
			return false, nil
		}
		ids, ok := v.([]string)
		if !ok {
			ids = conv.SliceAnyToString(v)
		}
		for _, id := range ids {
			if item.ID == id {
				return true, nil
			}
		}
	}

	return false, nil
}
