package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
type FilterNode struct {
	Filters []Filter

	// OnFiltered 在物品被过滤时调用（可选），用于打点
	OnFiltered func(item *core.Item, filter string)

	// OnError 在过滤器出错时调用（可选）；出错的过滤器视为未命中，不中断流程
	OnError func(filter string, err error)
}

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				if n.OnError != nil {
					n.OnError(f.Name(), err)
				}
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			item.PutLabel(utils.LabelFiltered, utils.NewLabel("true", filterReason))
			if n.OnFiltered != nil {
				n.OnFiltered(item, filterReason)
			}
			continue
		}
		out = append(out, item)
	}

	return out, nil
}
