package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式：expr -> cel.Program
	programs sync.Map
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("book", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Compile 编译并缓存表达式，可用于在构建 Node 时提前校验语法。
func Compile(expr string) (cel.Program, error) {
	if prg, ok := programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return bool, got %v", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	actual, _ := programs.LoadOrStore(expr, prg)
	return actual.(cel.Program), nil
}

// Eval 是 Label DSL 解释器，使用 CEL (Common Expression Language) 实现。
//
// 可用变量：
//   - item：id / score / features / labels
//   - book：id / isbn / title / author / publisher / genres / popularity / created_at（unix 秒）
//   - label：label.<key> 直接得到 Label 的 value
//   - rctx：user_id / scene / params
//
// 示例：
//   - `book.popularity < 1` → 没有热度的书
//   - `"horor" in book.genres` → 带有某个类别
//   - `label.recall_source == "popular" && item.score > 0.5`
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 执行 DSL 表达式，返回布尔结果；空表达式恒为 true。
// 访问不存在的 key 会报错，存在性检查请使用 has(label.key)。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]any {
	item := map[string]any{}
	book := map[string]any{}
	labelAccessor := map[string]any{}

	if e.item != nil {
		labels := make(map[string]any, len(e.item.Labels))
		for k, v := range e.item.Labels {
			labels[k] = map[string]any{"value": v.Value, "source": v.Source}
			labelAccessor[k] = v.Value
		}
		features := e.item.Features
		if features == nil {
			features = map[string]float64{}
		}
		item = map[string]any{
			"id":       e.item.ID,
			"score":    e.item.Score,
			"features": features,
			"labels":   labels,
		}

		b := e.item.Book
		genres := b.NormalizedGenres()
		if genres == nil {
			genres = []string{}
		}
		var created int64
		if !b.CreatedAt.IsZero() {
			created = b.CreatedAt.Unix()
		}
		book = map[string]any{
			"id":         b.ID,
			"isbn":       b.ISBN,
			"title":      b.Title,
			"author":     b.Author,
			"publisher":  b.Publisher,
			"genres":     genres,
			"popularity": b.Popularity,
			"created_at": created,
		}
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		params := e.rctx.Params
		if params == nil {
			params = map[string]any{}
		}
		rctx = map[string]any{
			"user_id": e.rctx.UserID,
			"scene":   e.rctx.Scene,
			"params":  params,
		}
	}

	return map[string]any{
		"item":  item,
		"book":  book,
		"label": labelAccessor,
		"rctx":  rctx,
	}
}
