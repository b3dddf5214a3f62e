package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// KVCatalog 的默认 key
const (
	DefaultBooksKey   = "catalog:books"   // hash：book id -> Book JSON
	DefaultOrderKey   = "catalog:order"   // string：目录顺序（JSON 数组）
	DefaultPopularKey = "catalog:popular" // zset：book id -> 热度
	DefaultHistoryKey = "history:"        // hash 前缀：history:<user> -> book id -> View JSON
)

// KVCatalog 在任意 core.KeyValueStore（内存 / Redis）之上实现目录与浏览历史。
//
//   - 书籍文档存放在 hash catalog:books
//   - 目录顺序存放在 catalog:order，ListBooks 按写入顺序返回（决定同分先后）
//   - 热度存放在 zset catalog:popular，读取时覆盖文档中的 Popularity
//   - 浏览记录存放在 hash history:<user>，每本书一条聚合记录
type KVCatalog struct {
	kv core.KeyValueStore

	BooksKey      string
	OrderKey      string
	PopularKey    string
	HistoryPrefix string
}

func NewKVCatalog(kv core.KeyValueStore) *KVCatalog {
	return &KVCatalog{
		kv:            kv,
		BooksKey:      DefaultBooksKey,
		OrderKey:      DefaultOrderKey,
		PopularKey:    DefaultPopularKey,
		HistoryPrefix: DefaultHistoryKey,
	}
}

var (
	_ core.CatalogStore = (*KVCatalog)(nil)
	_ core.HistoryStore = (*KVCatalog)(nil)
)

func (c *KVCatalog) Name() string { return "kv:" + c.kv.Name() }

// Store 返回底层 KeyValueStore（热门召回直接读取有序集合）。
func (c *KVCatalog) Store() core.KeyValueStore { return c.kv }

func (c *KVCatalog) order(ctx context.Context) ([]string, error) {
	data, err := c.kv.Get(ctx, c.OrderKey)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog order: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode catalog order: %w", err)
	}
	return ids, nil
}

func (c *KVCatalog) ListBooks(ctx context.Context) ([]core.Book, error) {
	docs, err := c.kv.HGetAll(ctx, c.BooksKey)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	ids, err := c.order(ctx)
	if err != nil {
		return nil, err
	}

	// 不在顺序列表中的文档（例如外部直接写入）按 ID 升序排在最后
	listed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		listed[id] = struct{}{}
	}
	var extra []string
	for id := range docs {
		if _, ok := listed[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	ids = append(ids, extra...)

	books := make([]core.Book, 0, len(docs))
	for _, id := range ids {
		data, ok := docs[id]
		if !ok {
			continue
		}
		var b core.Book
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode book %s: %w", id, err)
		}
		if score, err := c.kv.ZScore(ctx, c.PopularKey, id); err == nil {
			b.Popularity = int64(score)
		}
		books = append(books, b)
	}
	return books, nil
}

func (c *KVCatalog) GetBook(ctx context.Context, id string) (core.Book, error) {
	data, err := c.kv.HGet(ctx, c.BooksKey, id)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return core.Book{}, fmt.Errorf("%w: %s", core.ErrBookNotFound, id)
		}
		return core.Book{}, fmt.Errorf("read book %s: %w", id, err)
	}
	var b core.Book
	if err := json.Unmarshal(data, &b); err != nil {
		return core.Book{}, fmt.Errorf("decode book %s: %w", id, err)
	}
	if score, err := c.kv.ZScore(ctx, c.PopularKey, id); err == nil {
		b.Popularity = int64(score)
	}
	return b, nil
}

// PutBooks 写入或覆盖书籍；新书追加到目录顺序末尾，已有书保持原位置。
// 已有书的 CreatedAt 和热度（浏览累计）不被重新导入覆盖。
func (c *KVCatalog) PutBooks(ctx context.Context, books []core.Book) error {
	ids, err := c.order(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	for _, b := range books {
		if b.ID == "" {
			return fmt.Errorf("%w: missing id (title %q)", core.ErrInvalidBook, b.Title)
		}
		if err := c.keepCreatedAt(ctx, &b); err != nil {
			return err
		}
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode book %s: %w", b.ID, err)
		}
		if err := c.kv.HSet(ctx, c.BooksKey, b.ID, data); err != nil {
			return fmt.Errorf("write book %s: %w", b.ID, err)
		}
		if err := c.initPopularity(ctx, b); err != nil {
			return err
		}
		if _, ok := known[b.ID]; !ok {
			known[b.ID] = struct{}{}
			ids = append(ids, b.ID)
		}
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode catalog order: %w", err)
	}
	if err := c.kv.Set(ctx, c.OrderKey, data); err != nil {
		return fmt.Errorf("write catalog order: %w", err)
	}
	return nil
}

// keepCreatedAt 沿用已存储文档的 CreatedAt
func (c *KVCatalog) keepCreatedAt(ctx context.Context, b *core.Book) error {
	data, err := c.kv.HGet(ctx, c.BooksKey, b.ID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil
		}
		return fmt.Errorf("read book %s: %w", b.ID, err)
	}
	var old core.Book
	if err := json.Unmarshal(data, &old); err != nil {
		return fmt.Errorf("decode book %s: %w", b.ID, err)
	}
	if !old.CreatedAt.IsZero() {
		b.CreatedAt = old.CreatedAt
	}
	return nil
}

// initPopularity 只在热度索引中还没有该书时写入初始热度，相当于 ZADD NX。
func (c *KVCatalog) initPopularity(ctx context.Context, b core.Book) error {
	_, err := c.kv.ZScore(ctx, c.PopularKey, b.ID)
	switch {
	case err == nil:
		return nil
	case !core.IsStoreNotFound(err):
		return fmt.Errorf("read popularity %s: %w", b.ID, err)
	}
	if err := c.kv.ZAdd(ctx, c.PopularKey, float64(b.Popularity), b.ID); err != nil {
		return fmt.Errorf("write popularity %s: %w", b.ID, err)
	}
	return nil
}

func (c *KVCatalog) historyKey(userID string) string {
	return c.HistoryPrefix + userID
}

// ListViews 返回用户浏览记录，按最近浏览时间降序（同时间按书 ID 升序）。
func (c *KVCatalog) ListViews(ctx context.Context, userID string) ([]core.View, error) {
	docs, err := c.kv.HGetAll(ctx, c.historyKey(userID))
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", userID, err)
	}
	views := make([]core.View, 0, len(docs))
	for bookID, data := range docs {
		var v core.View
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode view %s/%s: %w", userID, bookID, err)
		}
		v.UserID = userID
		v.BookID = bookID
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool {
		if !views[i].LastViewedAt.Equal(views[j].LastViewedAt) {
			return views[i].LastViewedAt.After(views[j].LastViewedAt)
		}
		return views[i].BookID < views[j].BookID
	})
	return views, nil
}

// RecordView 记录一次浏览：浏览次数 +1、更新时间，并给书籍热度 +1。
// 书不存在时返回 core.ErrBookNotFound。
func (c *KVCatalog) RecordView(ctx context.Context, userID, bookID string, at time.Time) error {
	if userID == "" {
		return core.NewDomainError(core.ModuleHistory, core.ErrorCodeInvalidInput, "history: missing user id")
	}
	if _, err := c.kv.HGet(ctx, c.BooksKey, bookID); err != nil {
		if core.IsStoreNotFound(err) {
			return fmt.Errorf("%w: %s", core.ErrBookNotFound, bookID)
		}
		return fmt.Errorf("read book %s: %w", bookID, err)
	}

	key := c.historyKey(userID)
	v := core.View{UserID: userID, BookID: bookID}
	data, err := c.kv.HGet(ctx, key, bookID)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode view %s/%s: %w", userID, bookID, err)
		}
	case core.IsStoreNotFound(err):
	default:
		return fmt.Errorf("read view %s/%s: %w", userID, bookID, err)
	}

	v.Count++
	v.LastViewedAt = at.UTC()
	if data, err = json.Marshal(v); err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	if err := c.kv.HSet(ctx, key, bookID, data); err != nil {
		return fmt.Errorf("write view %s/%s: %w", userID, bookID, err)
	}
	if _, err := c.kv.ZIncrBy(ctx, c.PopularKey, 1, bookID); err != nil {
		return fmt.Errorf("increment popularity %s: %w", bookID, err)
	}
	return nil
}
