package recall

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/store"
)

func TestUserHistory_Recall(t *testing.T) {
	ctx := context.Background()
	corpus := mixedCorpus()
	catalog := store.NewKVCatalog(store.NewMemoryStore())
	if err := catalog.PutBooks(ctx, corpus); err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = catalog.RecordView(ctx, "u1", "3", at)
	_ = catalog.RecordView(ctx, "u1", "1", at.Add(time.Hour))

	r := &UserHistory{Store: catalog, Recent: 1, TopK: 3}
	rctx := &core.RecommendContext{UserID: "u1", Corpus: corpus}
	items, err := r.Recall(ctx, rctx)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for _, it := range items {
		if it.ID == "1" || it.ID == "3" {
			t.Errorf("viewed book %s must not be recalled", it.ID)
		}
		if it.Labels["recall_source"].Value != "user_history" {
			t.Errorf("recall_source = %+v", it.Labels["recall_source"])
		}
	}
	if items[0].ID != "2" && items[0].ID != "5" {
		t.Errorf("top item = %s, want a fantasy book", items[0].ID)
	}
	for i := 1; i < len(items); i++ {
		if items[i].Score > items[i-1].Score {
			t.Errorf("items not sorted by score at %d", i)
		}
	}
}

func TestUserHistory_ExcludesAllRecentAndSeen(t *testing.T) {
	ctx := context.Background()
	corpus := fantasyCorpus()
	catalog := store.NewKVCatalog(store.NewMemoryStore())
	_ = catalog.PutBooks(ctx, corpus)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = catalog.RecordView(ctx, "u1", "1", at)
	_ = catalog.RecordView(ctx, "u1", "3", at.Add(time.Minute))

	user := core.NewUserProfile("u1")
	user.MarkSeen("2")
	rctx := &core.RecommendContext{UserID: "u1", User: user, Corpus: corpus}
	items, err := (&UserHistory{Store: catalog}).Recall(ctx, rctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v, want none (everything viewed or seen)", items)
	}
}

func TestUserHistory_NoStoreOrUser(t *testing.T) {
	items, err := (&UserHistory{}).Recall(context.Background(), &core.RecommendContext{UserID: "u"})
	if err != nil || items != nil {
		t.Errorf("Recall() = %v, %v", items, err)
	}
}
