package rank

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/model"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// PersonalNode 在 Pipeline 中执行个性化打分。
//   - 画像取自 rctx.User.Interests，热度归一化使用 rctx.Corpus
//   - 写入 features：genre_affinity / popularity / recency
//   - 写入 labels：rank_model、score_parts
//   - 更新 item.Score 并按分数稳定降序，不截断（交给 rerank.topn）
type PersonalNode struct {
	Scorer *PersonalScorer

	// Model 替换默认的线性融合（可选），输入同样是三项特征
	Model model.RankModel
}

func (n *PersonalNode) Name() string        { return "rank.personal" }
func (n *PersonalNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *PersonalNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	scorer := n.Scorer
	if scorer == nil {
		scorer = NewPersonalScorer(nil)
	}

	var (
		profile core.GenreProfile
		corpus  core.Corpus
	)
	if rctx != nil {
		profile = rctx.GetUserProfile().Interests
		corpus = rctx.Corpus
	}
	fs := scorer.Features(profile, corpus)
	var m model.RankModel = scorer.Model()
	if n.Model != nil {
		m = n.Model
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		for k, v := range fs.Of(it.Book) {
			it.Features[k] = v
		}
		score, err := m.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.PutLabel(utils.LabelRankModel, utils.NewLabel(m.Name(), "rank"))
		it.PutLabel(utils.LabelScorePart, utils.NewLabel(
			utils.FloatLabel(it.Features[FeatureGenreAffinity], "").Value+","+
				utils.FloatLabel(it.Features[FeaturePopularity], "").Value+","+
				utils.FloatLabel(it.Features[FeatureRecency], "").Value,
			"rank"))
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
