package recall

import (
	"context"
	"sort"
	"strings"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/pkg/utils"
)

// SimilarResult 的状态，说明结果为空的原因。
const (
	StatusOK            = "ok"             // 正常返回（结果可能仍为空，例如只有目标书一本有效）
	StatusEmptyCorpus   = "empty_corpus"   // 没有任何有效书籍
	StatusNotFound      = "not_found"      // 目标 ID 不存在 / 查询无匹配
	StatusTargetInvalid = "target_invalid" // 目标存在但缺少类别，不参与相似度计算
)

// SimilarResult 是相似推荐的结果。
// 找不到目标、空目录都不是错误：Recommendations 为空，Status 给出原因。
type SimilarResult struct {
	Recommendations []core.Recommendation `json:"recommendations"`
	Skipped         []core.Diagnostic     `json:"skipped,omitempty"`
	Status          string                `json:"status"`

	// TargetID 是实际使用的目标书 ID（按标题查询时为匹配到的书）
	TargetID string `json:"target_id,omitempty"`
}

// SimilarRecall 基于内容的相似推荐：
// 书名 TF-IDF + 类别 multi-hot + 简介 TF-IDF 组合向量，余弦相似度排序。
//
// 每次调用都从传入的 Corpus 重新构建词表与向量，不跨调用缓存。
// 同时实现 Node 接口：从 rctx.Params 读取 target_id 或 query，在 rctx.Corpus 上召回。
type SimilarRecall struct {
	// Config 提供默认返回数量，nil 时使用 core.DefaultEngineConfig
	Config core.EngineConfig
}

func (r *SimilarRecall) Name() string        { return "recall.similar" }
func (r *SimilarRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *SimilarRecall) config() core.EngineConfig {
	if r.Config != nil {
		return r.Config
	}
	return &core.DefaultEngineConfig{}
}

// RecommendSimilar 返回与 targetID 最相似的 topN 本书（不包含目标本身）。
// 同分保持 Corpus 原顺序；topN <= 0 时使用默认数量。
func (r *SimilarRecall) RecommendSimilar(targetID string, corpus []core.Book, topN int) SimilarResult {
	return r.RecommendSimilarIn(feature.Compose(corpus), targetID, topN)
}

// RecommendSimilarIn 与 RecommendSimilar 相同，但复用已经组合好的向量，
// 用于同一快照上对多个目标连续查询。
func (r *SimilarRecall) RecommendSimilarIn(comp *feature.Composition, targetID string, topN int) SimilarResult {
	if topN <= 0 {
		topN = r.config().DefaultTopN()
	}
	res := SimilarResult{Skipped: comp.Skipped, Recommendations: []core.Recommendation{}}

	pos, ok := comp.Lookup(targetID)
	switch {
	case ok:
	case targetID != "" && isSkipped(comp.Skipped, targetID):
		res.Status = StatusTargetInvalid
		return res
	case len(comp.Books) == 0:
		res.Status = StatusEmptyCorpus
		return res
	default:
		res.Status = StatusNotFound
		return res
	}

	res.Status = StatusOK
	res.TargetID = targetID
	target := comp.Vectors[pos]

	scored := make([]core.Recommendation, 0, len(comp.Books)-1)
	for i, b := range comp.Books {
		if i == pos {
			continue
		}
		scored = append(scored, core.Recommendation{
			Book:  b,
			Score: feature.Cosine(target, comp.Vectors[i]),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}
	res.Recommendations = scored
	return res
}

// RecommendByLabel 按标题做大小写不敏感的子串匹配，取 Corpus 中第一个命中的书作为目标，
// 再委托给 RecommendSimilar。多本书同时命中时只使用第一本。
// 空白查询不匹配任何书；无匹配时仍返回被跳过书籍的诊断信息。
func (r *SimilarRecall) RecommendByLabel(query string, corpus []core.Book, topN int) SimilarResult {
	comp := feature.Compose(corpus)
	id, ok := ResolveTitle(query, corpus)
	if !ok {
		res := SimilarResult{
			Recommendations: []core.Recommendation{},
			Skipped:         comp.Skipped,
			Status:          StatusNotFound,
		}
		if len(comp.Books) == 0 {
			res.Status = StatusEmptyCorpus
		}
		return res
	}
	return r.RecommendSimilarIn(comp, id, topN)
}

// ResolveTitle 返回标题包含 query（忽略大小写）的第一本书的 ID。
func ResolveTitle(query string, corpus []core.Book) (string, bool) {
	if strings.TrimSpace(query) == "" {
		return "", false
	}
	f := feature.NewFolder()
	for i := range corpus {
		if corpus[i].ID != "" && f.Contains(corpus[i].Title, query) {
			return corpus[i].ID, true
		}
	}
	return "", false
}

func isSkipped(skipped []core.Diagnostic, id string) bool {
	for _, d := range skipped {
		if d.ItemID == id && d.Reason == core.ReasonMissingGenre {
			return true
		}
	}
	return false
}

// Process 实现 Node 接口
func (r *SimilarRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
// 参数：target_id（优先）或 query，count（可选）。
func (r *SimilarRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}
	topN := conv.ConfigGetInt(rctx.Params, "count", 0)

	var res SimilarResult
	if id, _ := conv.ToString(rctx.Params["target_id"]); id != "" {
		res = r.RecommendSimilar(id, rctx.Corpus, topN)
	} else {
		q, _ := conv.ToString(rctx.Params["query"])
		res = r.RecommendByLabel(q, rctx.Corpus, topN)
	}

	out := make([]*core.Item, 0, len(res.Recommendations))
	for _, rec := range res.Recommendations {
		it := core.NewBookItem(rec.Book)
		it.Score = rec.Score
		it.Features["similarity"] = rec.Score
		it.PutLabel(utils.LabelRecallSource, utils.NewLabel("similar", "recall"))
		out = append(out, it)
	}
	return out, nil
}
