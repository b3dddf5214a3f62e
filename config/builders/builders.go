// Package builders 注册内置 Node 的配置构建器。
//
// 空白导入即可在全局注册表中使用所有内置类型（不带存储依赖）：
//
//	import _ "github.com/rushteam/bookrec/config/builders"
//
// 需要存储（recall.popular 读热度排行、recall.user_history 读浏览历史）时，
// 用 NewFactory(deps) 得到绑定了依赖的工厂。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/model"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

// Deps 是构建 Node 时可注入的依赖，均可为空。
type Deps struct {
	History core.HistoryStore
	KV      core.KeyValueStore
	Engine  core.EngineConfig
}

func init() {
	for typeName, b := range Builders(Deps{}) {
		config.Register(typeName, b)
	}
}

// Builders 返回绑定 deps 的全部内置构建器。
func Builders(deps Deps) map[string]pipeline.NodeBuilder {
	return map[string]pipeline.NodeBuilder{
		"recall.candidates":      buildCandidates,
		"recall.similar":         deps.buildSimilar,
		"recall.popular":         deps.buildPopular,
		"recall.user_history":    deps.buildUserHistory,
		"recall.fanout":          deps.buildFanout,
		"filter":                 buildFilter,
		"rank.personal":          deps.buildPersonal,
		"rerank.topn":            buildTopN,
		"rerank.genre_diversity": buildDiversity,
	}
}

// NewFactory 返回只包含内置构建器、绑定 deps 的工厂，不修改全局注册表。
func NewFactory(deps Deps) *pipeline.NodeFactory {
	r := config.NewRegistry()
	for typeName, b := range Builders(deps) {
		// Builders 的键互不相同，这里不会失败
		_ = r.Register(typeName, b)
	}
	return r.Factory()
}

func buildCandidates(cfg map[string]any) (pipeline.Node, error) {
	return &recall.Candidates{Limit: conv.ConfigGetInt(cfg, "limit", 0)}, nil
}

func (d Deps) buildSimilar(map[string]any) (pipeline.Node, error) {
	return &recall.SimilarRecall{Config: d.Engine}, nil
}

func (d Deps) buildPopular(cfg map[string]any) (pipeline.Node, error) {
	return &recall.Popular{
		Store: d.KV,
		Key:   conv.ConfigGet(cfg, "key", ""),
	}, nil
}

func (d Deps) buildUserHistory(cfg map[string]any) (pipeline.Node, error) {
	if d.History == nil {
		return nil, fmt.Errorf("recall.user_history requires a history store")
	}
	return &recall.UserHistory{
		Store:   d.History,
		Recent:  conv.ConfigGetInt(cfg, "recent", 0),
		TopK:    conv.ConfigGetInt(cfg, "top_k", 0),
		Similar: &recall.SimilarRecall{Config: d.Engine},
	}, nil
}

func (d Deps) buildFanout(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		var (
			node pipeline.Node
			err  error
		)
		switch t := conv.ConfigGet(sourceMap, "type", ""); t {
		case "candidates":
			node, err = buildCandidates(sourceMap)
		case "popular":
			node, err = d.buildPopular(sourceMap)
		case "similar":
			node, err = d.buildSimilar(sourceMap)
		case "user_history":
			node, err = d.buildUserHistory(sourceMap)
		default:
			return nil, fmt.Errorf("unknown source type: %s", t)
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, node.(recall.Source))
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", ""),
	}
	if ms := conv.ConfigGetInt(cfg, "timeout_ms", 0); ms > 0 {
		fanout.Timeout = time.Duration(ms) * time.Millisecond
	}
	switch fanout.MergeStrategy {
	case "", "first", "union":
	default:
		return nil, fmt.Errorf("unknown merge strategy: %s", fanout.MergeStrategy)
	}
	return fanout, nil
}

func buildFilter(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch t := conv.ConfigGet(filterMap, "type", ""); t {
		case "seen":
			filters = append(filters, filter.NewSeenFilter())
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["item_ids"])
			if ids == nil {
				ids = []string{}
			}
			filters = append(filters, filter.NewBlacklistFilter(ids))
		case "expr":
			f, err := filter.NewExprFilter(
				conv.ConfigGet(filterMap, "expr", ""),
				conv.ConfigGet(filterMap, "invert", false),
			)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", t)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func (d Deps) buildPersonal(cfg map[string]any) (pipeline.Node, error) {
	s := rank.NewPersonalScorer(d.Engine)
	if w, ok := cfg["weights"].(map[string]any); ok {
		s.GenreWeight = conv.ConfigGetFloat(w, rank.FeatureGenreAffinity, s.GenreWeight)
		s.PopularityWeight = conv.ConfigGetFloat(w, rank.FeaturePopularity, s.PopularityWeight)
		s.RecencyWeight = conv.ConfigGetFloat(w, rank.FeatureRecency, s.RecencyWeight)
	}
	if s.GenreWeight < 0 || s.PopularityWeight < 0 || s.RecencyWeight < 0 {
		return nil, fmt.Errorf("weights must be non-negative")
	}
	s.MinCount = conv.ConfigGetInt(cfg, "min_count", s.MinCount)
	s.MaxCount = conv.ConfigGetInt(cfg, "max_count", s.MaxCount)
	if days := conv.ConfigGetInt(cfg, "horizon_days", 0); days > 0 {
		s.Horizon = time.Duration(days) * 24 * time.Hour
	}
	node := &rank.PersonalNode{Scorer: s}
	// model_path 指向 JSON 线性模型时替换默认权重
	if path := conv.ConfigGet(cfg, "model_path", ""); path != "" {
		m, err := model.LoadLinearModel(path)
		if err != nil {
			return nil, err
		}
		node.Model = m
	}
	return node, nil
}

func buildTopN(cfg map[string]any) (pipeline.Node, error) {
	n := &rerank.TopNNode{
		N:   conv.ConfigGetInt(cfg, "n", 0),
		Min: conv.ConfigGetInt(cfg, "min", 0),
		Max: conv.ConfigGetInt(cfg, "max", 0),
	}
	if n.Max > 0 && n.Min > n.Max {
		return nil, fmt.Errorf("min %d greater than max %d", n.Min, n.Max)
	}
	return n, nil
}

func buildDiversity(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.GenreDiversity{MaxPerGenre: conv.ConfigGetInt(cfg, "max_per_genre", 0)}, nil
}
