package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/bookrec/core"
)

func seedCatalog(t *testing.T) *KVCatalog {
	t.Helper()
	c := NewKVCatalog(NewMemoryStore())
	books := []core.Book{
		{ID: "9786020", Title: "Laskar Pelangi", Genres: []string{"novel"}, Popularity: 4},
		{ID: "9786021", Title: "Bumi", Genres: []string{"fantasy"}},
		{ID: "9786022", Title: "Fisika Dasar", Genres: []string{"sains"}, Popularity: 1},
	}
	if err := c.PutBooks(context.Background(), books); err != nil {
		t.Fatalf("PutBooks() error = %v", err)
	}
	return c
}

func TestKVCatalog_ListBooksKeepsOrder(t *testing.T) {
	ctx := context.Background()
	c := seedCatalog(t)

	// 覆盖已有书籍不改变位置
	if err := c.PutBooks(ctx, []core.Book{
		{ID: "9786023", Title: "Baru"},
		{ID: "9786020", Title: "Laskar Pelangi (edisi baru)", Genres: []string{"novel"}, Popularity: 4},
	}); err != nil {
		t.Fatal(err)
	}

	books, err := c.ListBooks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"9786020", "9786021", "9786022", "9786023"}
	if len(books) != len(want) {
		t.Fatalf("got %d books, want %d", len(books), len(want))
	}
	for i, id := range want {
		if books[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, books[i].ID, id)
		}
	}
	if books[0].Title != "Laskar Pelangi (edisi baru)" {
		t.Errorf("title = %q, want overwritten", books[0].Title)
	}
	if books[0].Popularity != 4 {
		t.Errorf("popularity = %d, want 4", books[0].Popularity)
	}
}

func TestKVCatalog_GetBook(t *testing.T) {
	c := seedCatalog(t)
	b, err := c.GetBook(context.Background(), "9786021")
	if err != nil {
		t.Fatal(err)
	}
	if b.Title != "Bumi" || len(b.Genres) != 1 {
		t.Errorf("GetBook() = %+v", b)
	}

	_, err = c.GetBook(context.Background(), "missing")
	if !errors.Is(err, core.ErrBookNotFound) || !core.IsNotFound(err) {
		t.Errorf("GetBook(missing) err = %v, want ErrBookNotFound", err)
	}
}

func TestKVCatalog_PutBooksRejectsMissingID(t *testing.T) {
	c := NewKVCatalog(NewMemoryStore())
	err := c.PutBooks(context.Background(), []core.Book{{Title: "no id"}})
	if !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestKVCatalog_RecordView(t *testing.T) {
	ctx := context.Background()
	c := seedCatalog(t)
	t1 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	for _, v := range []struct {
		book string
		at   time.Time
	}{
		{"9786021", t1},
		{"9786021", t2},
		{"9786022", t1},
	} {
		if err := c.RecordView(ctx, "u1", v.book, v.at); err != nil {
			t.Fatalf("RecordView(%s) error = %v", v.book, err)
		}
	}

	views, err := c.ListViews(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d views, want 2", len(views))
	}
	if views[0].BookID != "9786021" || views[0].Count != 2 || !views[0].LastViewedAt.Equal(t2) {
		t.Errorf("views[0] = %+v", views[0])
	}
	if views[1].BookID != "9786022" || views[1].Count != 1 || views[1].UserID != "u1" {
		t.Errorf("views[1] = %+v", views[1])
	}

	b, _ := c.GetBook(ctx, "9786021")
	if b.Popularity != 2 {
		t.Errorf("popularity after 2 views = %d, want 2", b.Popularity)
	}

	if err := c.RecordView(ctx, "u1", "missing", t1); !errors.Is(err, core.ErrBookNotFound) {
		t.Errorf("RecordView(missing) err = %v", err)
	}
	if err := c.RecordView(ctx, "", "9786021", t1); !core.IsInvalidInput(err) {
		t.Errorf("RecordView(no user) err = %v", err)
	}
	if views, _ := c.ListViews(ctx, "nobody"); len(views) != 0 {
		t.Errorf("ListViews(nobody) = %v", views)
	}
}

func TestKVCatalog_Empty(t *testing.T) {
	books, err := NewKVCatalog(NewMemoryStore()).ListBooks(context.Background())
	if err != nil || len(books) != 0 {
		t.Errorf("ListBooks() = %v, %v", books, err)
	}
}
