package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/store"
)

// 书名后缀各不相同，跨类别不共享书名词
var (
	fantasyTitles = []string{
		"Api", "Air", "Angin", "Batu", "Bulan", "Bintang", "Emas", "Es",
		"Gunung", "Hutan", "Kabut", "Laut", "Malam", "Perak", "Petir",
	}
	sainsTitles = []string{
		"Atom", "Cahaya", "Energi", "Gaya", "Gelombang", "Inti", "Kuantum", "Massa", "Partikel", "Suhu",
	}
)

// 15 本 fantasy（f0..f14）+ 10 本 sains（s0..s9），热度各不相同，没有时间戳。
func seedCatalog(t *testing.T) *store.KVCatalog {
	t.Helper()
	var books []core.Book
	for i, word := range fantasyTitles {
		books = append(books, core.Book{
			ID:         fmt.Sprintf("f%d", i),
			Title:      "Naga " + word,
			Synopsis:   "petualangan naga dan penyihir",
			Genres:     []string{"Fantasy"},
			Popularity: int64(i + 1),
		})
	}
	for i, word := range sainsTitles {
		books = append(books, core.Book{
			ID:         fmt.Sprintf("s%d", i),
			Title:      "Sains " + word,
			Synopsis:   "hukum newton dan energi",
			Genres:     []string{"Sains"},
			Popularity: int64(100 + i),
		})
	}
	c := store.NewKVCatalog(store.NewMemoryStore())
	if err := c.PutBooks(context.Background(), books); err != nil {
		t.Fatal(err)
	}
	return c
}

func newTestRecommender(c *store.KVCatalog, opts ...Option) *Recommender {
	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	opts = append([]Option{WithLogger(zerolog.Nop()), WithClock(clock), WithPopularStore(c.Store())}, opts...)
	return New(c, c, opts...)
}

func TestRecommender_ForUser_Personal(t *testing.T) {
	ctx := context.Background()
	c := seedCatalog(t)
	r := newTestRecommender(c)
	for i := 0; i < 2; i++ {
		if err := r.RecordView(ctx, "u1", "f0"); err != nil {
			t.Fatalf("RecordView() error = %v", err)
		}
	}

	res, err := r.ForUser(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if res.Source != SourcePersonal {
		t.Errorf("source = %q, want %q", res.Source, SourcePersonal)
	}
	if len(res.Recommendations) != 10 {
		t.Fatalf("got %d recommendations, want count clamped to 10", len(res.Recommendations))
	}
	for i, rec := range res.Recommendations {
		if rec.Book.ID == "f0" {
			t.Error("viewed book f0 recommended")
		}
		// 类别权重 0.4 高于 sains 可能拿到的最高分 0.3
		if rec.Book.Genres[0] != "Fantasy" {
			t.Errorf("rank %d = %s, want a fantasy book", i, rec.Book.ID)
		}
		if i > 0 && rec.Score > res.Recommendations[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
	if res.Recommendations[0].Book.ID != "f14" {
		t.Errorf("top = %s, want most popular fantasy f14", res.Recommendations[0].Book.ID)
	}
}

func TestRecommender_ForUser_GenreDiversity(t *testing.T) {
	ctx := context.Background()
	c := seedCatalog(t)
	r := newTestRecommender(c, WithGenreDiversity(3))
	if err := r.RecordView(ctx, "u1", "f0"); err != nil {
		t.Fatal(err)
	}
	res, err := r.ForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	// 每个主类别先取前 3 本，超出的按原分数顺序接在后面
	want := []string{"f14", "f13", "f12", "s9", "s8", "s7", "f11", "f10", "f9", "f8"}
	if len(res.Recommendations) != len(want) {
		t.Fatalf("got %d recommendations, want %d", len(res.Recommendations), len(want))
	}
	for i, id := range want {
		if got := res.Recommendations[i].Book.ID; got != id {
			t.Errorf("rank %d = %s, want %s", i, got, id)
		}
	}
	perGenre := map[string]int{}
	for _, rec := range res.Recommendations[:6] {
		perGenre[rec.Book.Genres[0]]++
	}
	if perGenre["Fantasy"] != 3 || perGenre["Sains"] != 3 {
		t.Errorf("capped prefix genres = %v, want 3 fantasy and 3 sains", perGenre)
	}
}

func TestRecommender_ForUser_PopularFallback(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(seedCatalog(t))

	res, err := r.ForUser(ctx, "new-user", 30)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if res.Source != SourcePopular {
		t.Errorf("source = %q, want %q", res.Source, SourcePopular)
	}
	if len(res.Recommendations) != 20 {
		t.Fatalf("got %d, want count clamped to 20", len(res.Recommendations))
	}
	if top := res.Recommendations[0]; top.Book.ID != "s9" || top.Score != 1 {
		t.Errorf("top = %s (%v), want s9 with score 1", top.Book.ID, top.Score)
	}
}

func TestRecommender_ForUser_WithoutHistoryStore(t *testing.T) {
	c := seedCatalog(t)
	r := New(c, nil, WithLogger(zerolog.Nop()))
	res, err := r.ForUser(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if res.Source != SourcePopular || len(res.Recommendations) != 10 {
		t.Errorf("result = %s with %d items, want popular with 10", res.Source, len(res.Recommendations))
	}
	if err := r.RecordView(context.Background(), "u1", "f1"); !core.IsNotSupported(err) {
		t.Errorf("RecordView() error = %v, want NOT_SUPPORTED", err)
	}
}

func TestRecommender_Errors(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(seedCatalog(t))

	if _, err := r.ForUser(ctx, " ", 10); !core.IsInvalidInput(err) {
		t.Errorf("ForUser(blank) error = %v, want INVALID_INPUT", err)
	}
	if err := r.RecordView(ctx, "u1", "missing"); !core.IsNotFound(err) {
		t.Errorf("RecordView(missing) error = %v, want NOT_FOUND", err)
	}
	if err := r.RecordView(ctx, "u1", ""); !core.IsInvalidInput(err) {
		t.Errorf("RecordView(blank book) error = %v, want INVALID_INPUT", err)
	}
}

func TestRecommender_SimilarAndSearch(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(seedCatalog(t))

	res, err := r.Similar(ctx, "f1", 3)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if res.Status != recall.StatusOK || len(res.Recommendations) != 3 {
		t.Fatalf("Similar() = %+v", res)
	}
	for i, rec := range res.Recommendations {
		if rec.Book.ID == "f1" {
			t.Error("target recommended to itself")
		}
		if rec.Book.Genres[0] != "Fantasy" {
			t.Errorf("similar to f1 = %s, want fantasy", rec.Book.ID)
		}
		if i > 0 && rec.Score > res.Recommendations[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}

	res, err = r.Search(ctx, "sains gaya", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.TargetID != "s3" {
		t.Errorf("Search() target = %q, want s3", res.TargetID)
	}
	if len(res.Recommendations) != 10 {
		t.Errorf("Search() returned %d, want default 10", len(res.Recommendations))
	}

	res, err = r.Similar(ctx, "nope", 3)
	if err != nil || res.Status != recall.StatusNotFound || len(res.Recommendations) != 0 {
		t.Errorf("Similar(unknown) = %+v, %v", res, err)
	}
}
