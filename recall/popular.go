package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// DefaultPopularKey 是书籍热度有序集合的默认 key。
const DefaultPopularKey = "catalog:popular"

// Popular 是热门召回源，用于冷启动（用户没有浏览历史）。
//   - 如果 Store 不为空，优先使用 ZRange 读取热度排行（按分数降序）
//   - 否则（或有序集合为空）按 Corpus 中的 Popularity 稳定降序
//
// 分数为 pop / maxPop（maxPop 至少为 1），落在 [0, 1]。
// Popular 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Popular struct {
	Store core.KeyValueStore
	Key   string // 默认 catalog:popular
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Popular) key() string {
	if r.Key != "" {
		return r.Key
	}
	return DefaultPopularKey
}

// Process 实现 Node 接口，直接调用 Recall
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口，返回 Corpus 中全部有 ID 的书（按热度排序）。
func (r *Popular) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}
	recs, err := r.Rank(ctx, rctx.Corpus, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(recs))
	for _, rec := range recs {
		it := core.NewBookItem(rec.Book)
		it.Score = rec.Score
		it.Features["popularity"] = rec.Score
		it.PutLabel(utils.LabelRecallSource, utils.NewLabel("popular", "recall"))
		out = append(out, it)
	}
	return out, nil
}

// Rank 返回按热度排序的前 n 本书（n <= 0 返回全部）。
// Store 读取失败时退回 Corpus 热度，不返回错误；只有 ctx 取消会返回错误。
func (r *Popular) Rank(ctx context.Context, corpus []core.Book, n int) ([]core.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pop := make(map[string]float64, len(corpus))
	for _, b := range corpus {
		if b.ID != "" {
			pop[b.ID] = float64(b.Popularity)
		}
	}

	var ordered []core.Book
	if r.Store != nil {
		ordered = r.fromStore(ctx, corpus, pop)
	}
	if len(ordered) == 0 {
		ordered = RankByPopularity(corpus)
	}

	maxPop := 1.0
	for _, b := range ordered {
		if pop[b.ID] > maxPop {
			maxPop = pop[b.ID]
		}
	}

	if n > 0 && len(ordered) > n {
		ordered = ordered[:n]
	}
	out := make([]core.Recommendation, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, core.Recommendation{Book: b, Score: pop[b.ID] / maxPop})
	}
	return out, nil
}

// fromStore 按有序集合顺序排列 Corpus 中的书，并用集合分数覆盖 pop；
// 集合中没有的书按 Corpus 热度排在后面。
func (r *Popular) fromStore(ctx context.Context, corpus []core.Book, pop map[string]float64) []core.Book {
	members, err := r.Store.ZRange(ctx, r.key(), 0, -1)
	if err != nil || len(members) == 0 {
		return nil
	}

	byID := make(map[string]core.Book, len(corpus))
	for _, b := range corpus {
		if b.ID != "" {
			if _, dup := byID[b.ID]; !dup {
				byID[b.ID] = b
			}
		}
	}

	ordered := make([]core.Book, 0, len(byID))
	used := make(map[string]struct{}, len(members))
	for _, m := range members {
		b, ok := byID[m]
		if !ok {
			continue
		}
		if score, err := r.Store.ZScore(ctx, r.key(), m); err == nil && score > 0 {
			pop[m] = score
		}
		used[m] = struct{}{}
		ordered = append(ordered, b)
	}

	var rest []core.Book
	for _, b := range corpus {
		if _, ok := byID[b.ID]; !ok {
			continue
		}
		if _, ok := used[b.ID]; ok {
			continue
		}
		used[b.ID] = struct{}{}
		rest = append(rest, b)
	}
	return append(ordered, RankByPopularity(rest)...)
}

// RankByPopularity 按 Popularity 稳定降序排序（同分保持原顺序），
// 跳过没有 ID 的书与重复 ID。
func RankByPopularity(corpus []core.Book) []core.Book {
	out := make([]core.Book, 0, len(corpus))
	seen := make(map[string]struct{}, len(corpus))
	for _, b := range corpus {
		if b.ID == "" {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popularity > out[j].Popularity
	})
	return out
}
