package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤：表达式为 true 的物品被移除。
// 例如 `book.popularity < 1`、`"horor" in book.genres`。
type ExprFilter struct {
	Expr string

	// Invert 为 true 时反转语义：表达式为 true 的物品保留
	Invert bool
}

// NewExprFilter 创建表达式过滤器，并提前编译表达式以尽早发现语法错误。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	if expr != "" {
		if _, err := dsl.Compile(expr); err != nil {
			return nil, err
		}
	}
	return &ExprFilter{Expr: expr, Invert: invert}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}
	matched, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	if f.Invert {
		return !matched, nil
	}
	return matched, nil
}
