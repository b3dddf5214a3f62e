package rank

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rushteam/bookrec/core"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer() *PersonalScorer {
	s := NewPersonalScorer(nil)
	s.Now = func() time.Time { return fixedNow }
	return s
}

func makePool(n int) []core.Book {
	pool := make([]core.Book, n)
	for i := range pool {
		pool[i] = core.Book{ID: fmt.Sprintf("b%02d", i), Genres: []string{"novel"}, Popularity: int64(i)}
	}
	return pool
}

func TestScoreForUser_FantasyProfileRanksFantasyFirst(t *testing.T) {
	pool := []core.Book{
		{ID: "A", Genres: []string{"fantasy"}, Popularity: 5, CreatedAt: fixedNow},
		{ID: "B", Genres: []string{"sains"}, Popularity: 5, CreatedAt: fixedNow},
	}
	got := newTestScorer().ScoreForUser(core.GenreProfile{"fantasy": 10}, pool, pool, 10)

	if len(got) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(got))
	}
	if got[0].Book.ID != "A" {
		t.Errorf("first = %s, want A", got[0].Book.ID)
	}
	if !(got[0].Score > got[1].Score) {
		t.Errorf("score A = %v should exceed score B = %v", got[0].Score, got[1].Score)
	}
	if math.Abs(got[0].Score-1.0) > 1e-12 {
		t.Errorf("score A = %v, want 1 (0.4 + 0.3 + 0.3)", got[0].Score)
	}
	if math.Abs(got[1].Score-0.6) > 1e-12 {
		t.Errorf("score B = %v, want 0.6", got[1].Score)
	}
}

func TestScoreForUser_CountClamp(t *testing.T) {
	s := newTestScorer()
	profile := core.GenreProfile{"novel": 1}

	tests := []struct {
		name    string
		pool    int
		desired int
		want    int
	}{
		{name: "below minimum", pool: 30, desired: 3, want: 10},
		{name: "above maximum", pool: 30, desired: 50, want: 20},
		{name: "within range", pool: 30, desired: 15, want: 15},
		{name: "zero desired", pool: 30, desired: 0, want: 10},
		{name: "small pool", pool: 4, desired: 15, want: 4},
		{name: "pool between bounds", pool: 12, desired: 20, want: 12},
		{name: "empty pool", pool: 0, desired: 10, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := makePool(tt.pool)
			got := s.ScoreForUser(profile, pool, pool, tt.desired)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestScoreForUser_StableTies(t *testing.T) {
	pool := []core.Book{
		{ID: "x", Genres: []string{"novel"}},
		{ID: "y", Genres: []string{"novel"}},
		{ID: "z", Genres: []string{"novel"}},
	}
	got := newTestScorer().ScoreForUser(core.GenreProfile{"novel": 2}, pool, pool, 10)
	for i, want := range []string{"x", "y", "z"} {
		if got[i].Book.ID != want {
			t.Errorf("position %d = %s, want %s", i, got[i].Book.ID, want)
		}
	}
}

func TestFeatureSet(t *testing.T) {
	s := newTestScorer()
	corpus := []core.Book{
		{ID: "hot", Popularity: 8},
		{ID: "warm", Popularity: 2},
	}
	fs := s.Features(core.GenreProfile{"Fantasy": 3, "novel": 1}, corpus)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{name: "affinity sums labels", got: fs.GenreAffinity(core.Book{Genres: []string{"fantasy", "novel"}}), want: 1},
		{name: "affinity partial", got: fs.GenreAffinity(core.Book{Genres: []string{"FANTASY"}}), want: 0.75},
		{name: "affinity unknown genre", got: fs.GenreAffinity(core.Book{Genres: []string{"horror"}}), want: 0},
		{name: "popularity max", got: fs.Popularity(core.Book{ID: "hot"}), want: 1},
		{name: "popularity ratio", got: fs.Popularity(core.Book{ID: "warm"}), want: 0.25},
		{name: "popularity from corpus only", got: fs.Popularity(core.Book{ID: "other", Popularity: 100}), want: 0},
		{name: "recency today", got: fs.Recency(core.Book{CreatedAt: fixedNow}), want: 1},
		{name: "recency half year", got: fs.Recency(core.Book{CreatedAt: fixedNow.Add(-365 * 12 * time.Hour)}), want: 0.5},
		{name: "recency older than horizon", got: fs.Recency(core.Book{CreatedAt: fixedNow.AddDate(-2, 0, 0)}), want: 0},
		{name: "recency future", got: fs.Recency(core.Book{CreatedAt: fixedNow.AddDate(0, 0, 3)}), want: 1},
		{name: "recency no timestamp", got: fs.Recency(core.Book{}), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestFeatureSet_FloorsDenominators(t *testing.T) {
	fs := newTestScorer().Features(core.GenreProfile{"novel": 0.5}, []core.Book{{ID: "a"}})
	if got := fs.GenreAffinity(core.Book{Genres: []string{"novel"}}); got != 0.5 {
		t.Errorf("affinity with total < 1 = %v, want 0.5", got)
	}
	if got := fs.Popularity(core.Book{ID: "a"}); got != 0 {
		t.Errorf("popularity with all-zero corpus = %v, want 0", got)
	}
}

func TestPersonalScorer_ZeroValue(t *testing.T) {
	var s PersonalScorer
	if s.Count(0) != 10 || s.Count(100) != 20 {
		t.Errorf("zero-value clamp = [%d, %d], want [10, 20]", s.Count(0), s.Count(100))
	}
	m := s.Model()
	if m.Weight(FeatureGenreAffinity) != 0.4 || m.Weight(FeaturePopularity) != 0.3 || m.Weight(FeatureRecency) != 0.3 {
		t.Errorf("zero-value weights = %+v", m.Terms)
	}
}

func TestPersonalNode_Process(t *testing.T) {
	corpus := core.Corpus{
		{ID: "A", Genres: []string{"sains"}, Popularity: 1},
		{ID: "B", Genres: []string{"fantasy"}, Popularity: 1},
	}
	user := core.NewUserProfile("u1")
	user.Interests.Add([]string{"fantasy"}, 4)
	rctx := &core.RecommendContext{UserID: "u1", User: user, Corpus: corpus}

	items := []*core.Item{core.NewBookItem(corpus[0]), core.NewBookItem(corpus[1])}
	node := &PersonalNode{Scorer: newTestScorer()}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 || out[0].ID != "B" {
		t.Fatalf("order = %v, want B first", out)
	}
	if out[0].Features[FeatureGenreAffinity] != 1 {
		t.Errorf("genre_affinity = %v, want 1", out[0].Features[FeatureGenreAffinity])
	}
	if out[0].Labels["rank_model"].Value != "personal" {
		t.Errorf("rank_model = %+v", out[0].Labels["rank_model"])
	}
	if out[0].Labels["score_parts"].Value != "1.0000,1.0000,0.0000" {
		t.Errorf("score_parts = %q", out[0].Labels["score_parts"].Value)
	}
}

type constModel struct{ score float64 }

func (m constModel) Name() string { return "const" }
func (m constModel) Predict(map[string]float64) (float64, error) {
	return m.score, nil
}

func TestPersonalNode_CustomModel(t *testing.T) {
	items := []*core.Item{
		core.NewBookItem(core.Book{ID: "a", Genres: []string{"x"}}),
		core.NewBookItem(core.Book{ID: "b", Genres: []string{"y"}}),
	}
	n := &PersonalNode{Model: constModel{score: 0.5}}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for _, it := range out {
		if it.Score != 0.5 {
			t.Errorf("%s score = %v, want 0.5", it.ID, it.Score)
		}
		if it.Labels["rank_model"].Value != "const" {
			t.Errorf("rank_model = %q, want const", it.Labels["rank_model"].Value)
		}
	}
	if out[0].ID != "a" {
		t.Errorf("equal scores should keep input order, got %s first", out[0].ID)
	}
}
