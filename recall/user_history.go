package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// UserHistory 是基于用户浏览历史的内容召回源：
// 取最近浏览的 Recent 本书，分别在 rctx.Corpus 上做相似推荐，
// 候选取各次相似度的最大值，去掉全部浏览过的书与画像中已看的书，按分数降序返回 TopK。
//
// 历史来源优先级：Store.ListViews（按最近浏览时间降序）；Store 为空时没有结果。
type UserHistory struct {
	Store core.HistoryStore

	// Recent 参与扩展的最近浏览数量，默认 5
	Recent int

	// TopK 返回数量，默认 20
	TopK int

	Similar *SimilarRecall
}

func (r *UserHistory) Name() string {
	return "recall.user_history"
}

func (r *UserHistory) Kind() pipeline.Kind {
	return pipeline.KindRecall
}

func (r *UserHistory) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *UserHistory) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	views, err := r.Store.ListViews(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}

	viewed := make(map[string]struct{}, len(views))
	for _, v := range views {
		viewed[v.BookID] = struct{}{}
	}

	recent := r.Recent
	if recent <= 0 {
		recent = 5
	}
	if len(views) > recent {
		views = views[:recent]
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	sim := r.Similar
	if sim == nil {
		sim = &SimilarRecall{}
	}

	user := rctx.GetUserProfile()

	comp := feature.Compose(rctx.Corpus)
	best := make(map[string]float64)
	var order []core.Book
	for _, v := range views {
		res := sim.RecommendSimilarIn(comp, v.BookID, len(comp.Books))
		for _, rec := range res.Recommendations {
			id := rec.Book.ID
			if _, ok := viewed[id]; ok || user.HasSeen(id) {
				continue
			}
			old, ok := best[id]
			if !ok {
				order = append(order, rec.Book)
			}
			if !ok || rec.Score > old {
				best[id] = rec.Score
			}
		}
	}

	out := make([]*core.Item, 0, len(order))
	for _, b := range order {
		it := core.NewBookItem(b)
		it.Score = best[b.ID]
		it.Features["similarity"] = it.Score
		it.PutLabel(utils.LabelRecallSource, utils.NewLabel("user_history", "recall"))
		out = append(out, it)
	}
	sortItemsByScore(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}
