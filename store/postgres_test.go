package store

import (
	"testing"
	"time"

	"github.com/rushteam/bookrec/core"
)

func TestBookRecordMapping(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	b := core.Book{
		ID:         "9786020331",
		ISBN:       "9786020331",
		Title:      "Bumi",
		Author:     "Tere Liye",
		Synopsis:   "dunia paralel",
		Genres:     []string{"Fantasy", "Novel", "fantasy"},
		Publisher:  "Gramedia",
		CoverURL:   "https://example.com/bumi.jpg",
		Popularity: 12,
		CreatedAt:  created,
	}
	ids := map[string]uint64{"fantasy": 7, "novel": 3}

	r := bookToRecord(b, ids)
	if r.GenreID == nil || *r.GenreID != 7 {
		t.Fatalf("GenreID = %v, want primary genre 7", r.GenreID)
	}
	if len(r.Genres) != 2 {
		t.Fatalf("Genres = %+v, want 2 distinct", r.Genres)
	}
	if r.Penerbit != "Gramedia" || r.CoverImg != b.CoverURL || r.ViewCount != 12 {
		t.Errorf("record = %+v", r)
	}

	// 关联按 id 加载时主类别仍排第一
	r.Genres = []GenreRecord{{ID: 3, Name: "novel"}, {ID: 7, Name: "fantasy"}}
	got := recordToBook(&r)
	if len(got.Genres) != 2 || got.Genres[0] != "fantasy" || got.Genres[1] != "novel" {
		t.Errorf("Genres = %v, want [fantasy novel]", got.Genres)
	}
	if got.Publisher != b.Publisher || got.Popularity != 12 || !got.CreatedAt.Equal(created) {
		t.Errorf("book = %+v", got)
	}
}

func TestBookRecordMapping_NoGenres(t *testing.T) {
	r := bookToRecord(core.Book{ID: "x", Title: "Tanpa"}, nil)
	if r.GenreID != nil || len(r.Genres) != 0 {
		t.Errorf("record = %+v, want no genre", r)
	}
	if b := recordToBook(&r); len(b.Genres) != 0 {
		t.Errorf("Genres = %v", b.Genres)
	}
}

func TestTableNames(t *testing.T) {
	if (GenreRecord{}).TableName() != "genres" || (BookRecord{}).TableName() != "books" || (BookViewRecord{}).TableName() != "book_views" {
		t.Error("unexpected table names")
	}
}

func TestBookUpsertColumns_KeepAccumulatedFields(t *testing.T) {
	for _, col := range bookUpsertColumns {
		if col == "view_count" || col == "created_at" || col == "id" {
			t.Errorf("upsert overwrites %q", col)
		}
	}
	if len(bookUpsertColumns) == 0 {
		t.Error("no upsert columns")
	}
}
