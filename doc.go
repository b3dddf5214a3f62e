// Package bookrec 是一个基于内容的书籍推荐引擎。
//
// 设计要点：
// - 相似推荐：书名 TF-IDF + 类别 multi-hot + 简介 TF-IDF 组合向量，余弦相似度排序
// - 个性化：类别兴趣、热度、时效加权融合，没有历史的用户走热门兜底
// - Pipeline-first: 个性化流程通过 Node 串联（Recall → Filter → Rank → ReRank），可由 YAML 配置
// - 无状态：每次调用都从传入的目录快照重新构建词表与向量
package bookrec

import (
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/recall"
)

// 轻量 facade：便于用户直接 import "bookrec" 使用核心抽象。
type (
	Book           = core.Book
	Recommendation = core.Recommendation
	GenreProfile   = core.GenreProfile
	SimilarResult  = recall.SimilarResult
	Pipeline       = pipeline.Pipeline
	Node           = pipeline.Node
	Kind           = pipeline.Kind
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// RecommendSimilar 返回与 targetID 最相似的 topN 本书（topN <= 0 时为 10）。
func RecommendSimilar(targetID string, corpus []Book, topN int) SimilarResult {
	return (&recall.SimilarRecall{}).RecommendSimilar(targetID, corpus, topN)
}

// RecommendByLabel 以第一本书名包含 query（不区分大小写）的书为目标做相似推荐。
func RecommendByLabel(query string, corpus []Book, topN int) SimilarResult {
	return (&recall.SimilarRecall{}).RecommendByLabel(query, corpus, topN)
}

// ScoreForUser 使用默认权重（0.4/0.3/0.3）为用户打分，数量限制在 [10, 20]。
// pool 应已去掉用户看过的书。
func ScoreForUser(profile GenreProfile, pool, corpus []Book, desired int) []Recommendation {
	return rank.NewPersonalScorer(nil).ScoreForUser(profile, pool, corpus, desired)
}
