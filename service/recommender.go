// Package service 把目录/历史存储、相似推荐与个性化 Pipeline 组装成可直接调用的推荐服务。
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/logging"
	"github.com/rushteam/bookrec/pkg/metrics"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

// 个性化结果来源
const (
	SourcePersonal = "personal"
	SourcePopular  = "popular"
)

// UserResult 是个性化推荐的结果。
type UserResult struct {
	UserID          string                `json:"user_id"`
	Source          string                `json:"source"`
	Recommendations []core.Recommendation `json:"recommendations"`
}

// Recommender 推荐服务。每次请求都读取一份新的目录快照，服务本身不缓存任何特征。
type Recommender struct {
	catalog core.CatalogStore
	history core.HistoryStore

	engine   core.EngineConfig
	similar  *recall.SimilarRecall
	popular  *recall.Popular
	scorer   *rank.PersonalScorer
	personal *pipeline.Pipeline

	maxPerGenre int
	log         zerolog.Logger
	now         func() time.Time
}

// Option 配置 Recommender。
type Option func(*Recommender)

// WithEngineConfig 设置引擎配置（默认数量、个性化数量区间、时效窗口）。
func WithEngineConfig(cfg core.EngineConfig) Option {
	return func(r *Recommender) { r.engine = cfg }
}

// WithScorer 替换个性化打分器（例如使用配置中的权重）。
func WithScorer(s *rank.PersonalScorer) Option {
	return func(r *Recommender) { r.scorer = s }
}

// WithPipeline 使用自定义个性化 Pipeline（例如从 YAML 构建）。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(r *Recommender) { r.personal = p }
}

// WithPopularStore 让热门兜底读取 KeyValueStore 中的热度排行。
func WithPopularStore(kv core.KeyValueStore) Option {
	return func(r *Recommender) { r.popular = &recall.Popular{Store: kv} }
}

// WithGenreDiversity 在默认 Pipeline 中按主类别打散，每类最多 n 本。
func WithGenreDiversity(n int) Option {
	return func(r *Recommender) { r.maxPerGenre = n }
}

// WithLogger 设置日志。
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) { r.log = l }
}

// WithClock 设置时钟（浏览记录时间、时效分）。
func WithClock(now func() time.Time) Option {
	return func(r *Recommender) { r.now = now }
}

// New 创建推荐服务。history 可以为 nil，此时所有用户都走热门兜底，RecordView 不可用。
func New(catalog core.CatalogStore, history core.HistoryStore, opts ...Option) *Recommender {
	r := &Recommender{
		catalog: catalog,
		history: history,
		engine:  &core.DefaultEngineConfig{},
		log:     logging.Component("service"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		r.engine = &core.DefaultEngineConfig{}
	}
	if r.similar == nil {
		r.similar = &recall.SimilarRecall{Config: r.engine}
	}
	if r.popular == nil {
		r.popular = &recall.Popular{}
	}
	if r.scorer == nil {
		r.scorer = rank.NewPersonalScorer(r.engine)
	}
	if r.scorer.Now == nil {
		r.scorer.Now = r.now
	}
	if r.personal == nil {
		r.personal = DefaultPipeline(r.scorer, r.maxPerGenre)
	}
	r.instrument(r.personal)
	return r
}

// DefaultPipeline 返回内置的个性化 Pipeline：
//
//	recall.candidates → filter(seen) → rank.personal → [rerank.genre_diversity] → rerank.topn
func DefaultPipeline(scorer *rank.PersonalScorer, maxPerGenre int) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&recall.Candidates{},
		&filter.FilterNode{Filters: []filter.Filter{filter.NewSeenFilter()}},
		&rank.PersonalNode{Scorer: scorer},
	}
	if maxPerGenre > 0 {
		nodes = append(nodes, &rerank.GenreDiversity{MaxPerGenre: maxPerGenre})
	}
	nodes = append(nodes, &rerank.TopNNode{Min: scorer.MinCount, Max: scorer.MaxCount})
	return &pipeline.Pipeline{Nodes: nodes}
}

// instrument 给 Pipeline 挂上过滤计数与节点日志（已有回调的保持不变）。
func (r *Recommender) instrument(p *pipeline.Pipeline) {
	for _, n := range p.Nodes {
		fn, ok := n.(*filter.FilterNode)
		if !ok {
			continue
		}
		if fn.OnFiltered == nil {
			fn.OnFiltered = func(_ *core.Item, f string) { metrics.RecordFiltered(f) }
		}
		if fn.OnError == nil {
			fn.OnError = func(f string, err error) {
				r.log.Warn().Err(err).Str("filter", f).Msg("filter failed, item kept")
			}
		}
	}
	if p.Observer == nil {
		p.Observer = func(n pipeline.Node, in, out int) {
			r.log.Debug().Str("node", n.Name()).Int("in", in).Int("out", out).Msg("pipeline node")
		}
	}
}

// Similar 返回与 bookID 最相似的 n 本书（n <= 0 使用默认数量）。
func (r *Recommender) Similar(ctx context.Context, bookID string, n int) (recall.SimilarResult, error) {
	start := time.Now()
	defer func() { metrics.RecordRequest(metrics.ModeSimilar, time.Since(start)) }()

	books, err := r.catalog.ListBooks(ctx)
	if err != nil {
		return recall.SimilarResult{}, fmt.Errorf("load catalog: %w", err)
	}
	res := r.similar.RecommendSimilar(bookID, books, n)
	r.report(metrics.ModeSimilar, res)
	return res, nil
}

// Search 按书名子串找到第一本匹配的书，再返回与它相似的 n 本书。
func (r *Recommender) Search(ctx context.Context, query string, n int) (recall.SimilarResult, error) {
	start := time.Now()
	defer func() { metrics.RecordRequest(metrics.ModeSearch, time.Since(start)) }()

	books, err := r.catalog.ListBooks(ctx)
	if err != nil {
		return recall.SimilarResult{}, fmt.Errorf("load catalog: %w", err)
	}
	res := r.similar.RecommendByLabel(query, books, n)
	r.report(metrics.ModeSearch, res)
	return res, nil
}

func (r *Recommender) report(mode string, res recall.SimilarResult) {
	counts := make(map[string]int)
	for _, d := range res.Skipped {
		counts[d.Reason]++
	}
	for reason, c := range counts {
		metrics.RecordSkipped(reason, c)
		r.log.Warn().Str("mode", mode).Str("reason", reason).Int("count", c).Msg("catalog items skipped")
	}
	r.log.Info().
		Str("mode", mode).
		Str("target_id", res.TargetID).
		Str("status", res.Status).
		Int("results", len(res.Recommendations)).
		Msg("similar recommendations")
}

// ForUser 返回用户的个性化推荐。
// 数量 n 会被限制在 [MinUserCount, MaxUserCount]；没有浏览历史时返回热门书籍（排除已看）。
func (r *Recommender) ForUser(ctx context.Context, userID string, n int) (*UserResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: user id is required")
	}
	start := time.Now()
	defer func() { metrics.RecordRequest(metrics.ModeForUser, time.Since(start)) }()

	var (
		books []core.Book
		views []core.View
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if books, err = r.catalog.ListBooks(egCtx); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		return nil
	})
	if r.history != nil {
		eg.Go(func() error {
			var err error
			if views, err = r.history.ListViews(egCtx, userID); err != nil {
				return fmt.Errorf("load history %s: %w", userID, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	count := r.scorer.Count(n)
	profile := core.BuildUserProfile(userID, views, books)
	if !profile.HasHistory() {
		return r.fallback(ctx, profile, books, count)
	}

	rctx := &core.RecommendContext{
		UserID: userID,
		Scene:  "for_user",
		User:   profile,
		Corpus: books,
		Params: map[string]any{"count": count},
	}
	items, err := r.personal.Run(ctx, rctx, nil)
	if err != nil {
		return nil, fmt.Errorf("personal pipeline: %w", err)
	}
	recs := core.ItemsToRecommendations(items)
	r.log.Info().
		Str("user_id", userID).
		Int("views", len(views)).
		Int("results", len(recs)).
		Msg("personal recommendations")
	return &UserResult{UserID: userID, Source: SourcePersonal, Recommendations: recs}, nil
}

func (r *Recommender) fallback(ctx context.Context, profile *core.UserProfile, books []core.Book, count int) (*UserResult, error) {
	ranked, err := r.popular.Rank(ctx, books, 0)
	if err != nil {
		return nil, err
	}
	recs := make([]core.Recommendation, 0, count)
	for _, rec := range ranked {
		if len(recs) >= count {
			break
		}
		if profile.HasSeen(rec.Book.ID) {
			continue
		}
		recs = append(recs, rec)
	}
	metrics.RecordFallback()
	r.log.Info().Str("user_id", profile.UserID).Int("results", len(recs)).Msg("no history, popular fallback")
	return &UserResult{UserID: profile.UserID, Source: SourcePopular, Recommendations: recs}, nil
}

// RecordView 记录用户浏览了一本书。
func (r *Recommender) RecordView(ctx context.Context, userID, bookID string) error {
	if r.history == nil {
		return fmt.Errorf("record view: %w", core.ErrStoreNotSupported)
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(bookID) == "" {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: user id and book id are required")
	}
	if err := r.history.RecordView(ctx, userID, bookID, r.now()); err != nil {
		return err
	}
	r.log.Debug().Str("user_id", userID).Str("book_id", bookID).Msg("view recorded")
	return nil
}
