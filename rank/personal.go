package rank

import (
	"sort"
	"time"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/model"
)

// 个性化打分使用的特征名
const (
	FeatureGenreAffinity = "genre_affinity"
	FeaturePopularity    = "popularity"
	FeatureRecency       = "recency"
)

// 默认融合权重
const (
	DefaultGenreWeight      = 0.4
	DefaultPopularityWeight = 0.3
	DefaultRecencyWeight    = 0.3
)

// PersonalScorer 个性化打分：
//
//	score = GenreWeight * 类别亲和度 + PopularityWeight * 热度 + RecencyWeight * 时效
//
//   - 类别亲和度 = Σ profile[书的类别] / max(profile 总权重, 1)
//   - 热度 = 书在全量目录中的 Popularity / max(目录最大热度, 1)
//   - 时效 = max(0, 1 - 书龄 / Horizon)，没有时间戳为 0，未来时间为 1
//
// 零值可用：权重全为 0 时使用默认权重，其余字段为 0 时使用 core.DefaultEngineConfig。
type PersonalScorer struct {
	GenreWeight      float64
	PopularityWeight float64
	RecencyWeight    float64

	// 返回数量闭区间
	MinCount int
	MaxCount int

	// Horizon 是时效分衰减到 0 的时长
	Horizon time.Duration

	// Now 返回当前时间，测试时可替换
	Now func() time.Time
}

// NewPersonalScorer 按引擎配置创建打分器（权重使用默认值）。
func NewPersonalScorer(cfg core.EngineConfig) *PersonalScorer {
	if cfg == nil {
		cfg = &core.DefaultEngineConfig{}
	}
	return &PersonalScorer{
		GenreWeight:      DefaultGenreWeight,
		PopularityWeight: DefaultPopularityWeight,
		RecencyWeight:    DefaultRecencyWeight,
		MinCount:         cfg.MinUserCount(),
		MaxCount:         cfg.MaxUserCount(),
		Horizon:          cfg.RecencyHorizon(),
	}
}

// Model 返回与权重对应的线性模型。
func (s *PersonalScorer) Model() *model.LinearModel {
	g, p, r := s.GenreWeight, s.PopularityWeight, s.RecencyWeight
	if g == 0 && p == 0 && r == 0 {
		g, p, r = DefaultGenreWeight, DefaultPopularityWeight, DefaultRecencyWeight
	}
	return &model.LinearModel{
		ModelName: "personal",
		Terms: []model.Term{
			{Feature: FeatureGenreAffinity, Weight: g},
			{Feature: FeaturePopularity, Weight: p},
			{Feature: FeatureRecency, Weight: r},
		},
	}
}

// Count 把期望数量限制在 [MinCount, MaxCount]。
func (s *PersonalScorer) Count(desired int) int {
	def := &core.DefaultEngineConfig{}
	lo, hi := s.MinCount, s.MaxCount
	if lo <= 0 {
		lo = def.MinUserCount()
	}
	if hi <= 0 {
		hi = def.MaxUserCount()
	}
	if hi < lo {
		hi = lo
	}
	return core.ClampCount(desired, lo, hi)
}

func (s *PersonalScorer) horizon() time.Duration {
	if s.Horizon > 0 {
		return s.Horizon
	}
	return (&core.DefaultEngineConfig{}).RecencyHorizon()
}

func (s *PersonalScorer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ScoreForUser 对候选池打分并返回前 clamp(desired) 个结果。
//
// 调用方负责：候选池已去掉用户看过的书；profile 非空（无历史用户走热门兜底）。
// 候选不足时全部返回。同分保持候选池原顺序。
func (s *PersonalScorer) ScoreForUser(
	profile core.GenreProfile,
	pool []core.Book,
	corpus []core.Book,
	desired int,
) []core.Recommendation {
	n := s.Count(desired)
	f := s.Features(profile, corpus)
	m := s.Model()

	out := make([]core.Recommendation, 0, len(pool))
	for _, b := range pool {
		out = append(out, core.Recommendation{Book: b, Score: m.Score(f.Of(b))})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// FeatureSet 保存一次打分调用共享的归一化上下文。
type FeatureSet struct {
	profile    core.GenreProfile
	totalWt    float64
	popularity map[string]int64
	maxPop     float64
	now        time.Time
	horizon    time.Duration
}

// Features 基于用户画像和全量目录构建特征上下文。
func (s *PersonalScorer) Features(profile core.GenreProfile, corpus []core.Book) *FeatureSet {
	f := &FeatureSet{
		profile:    profile.Normalized(),
		popularity: make(map[string]int64, len(corpus)),
		maxPop:     1,
		now:        s.now(),
		horizon:    s.horizon(),
	}
	f.totalWt = f.profile.Total()
	if f.totalWt < 1 {
		f.totalWt = 1
	}
	for _, b := range corpus {
		if b.ID == "" {
			continue
		}
		if _, ok := f.popularity[b.ID]; ok {
			continue
		}
		f.popularity[b.ID] = b.Popularity
		if p := float64(b.Popularity); p > f.maxPop {
			f.maxPop = p
		}
	}
	return f
}

// Of 计算一本书的三个特征。
func (f *FeatureSet) Of(b core.Book) map[string]float64 {
	return map[string]float64{
		FeatureGenreAffinity: f.GenreAffinity(b),
		FeaturePopularity:    f.Popularity(b),
		FeatureRecency:       f.Recency(b),
	}
}

func (f *FeatureSet) GenreAffinity(b core.Book) float64 {
	var sum float64
	for _, g := range b.NormalizedGenres() {
		sum += f.profile[g]
	}
	if sum < 0 {
		return 0
	}
	return sum / f.totalWt
}

// Popularity 按全量目录中的热度计算，目录中没有该书时为 0。
func (f *FeatureSet) Popularity(b core.Book) float64 {
	p := float64(f.popularity[b.ID])
	if p <= 0 {
		return 0
	}
	return p / f.maxPop
}

func (f *FeatureSet) Recency(b core.Book) float64 {
	if b.CreatedAt.IsZero() {
		return 0
	}
	age := f.now.Sub(b.CreatedAt)
	if age <= 0 {
		return 1
	}
	r := 1 - float64(age)/float64(f.horizon)
	if r < 0 {
		return 0
	}
	return r
}
