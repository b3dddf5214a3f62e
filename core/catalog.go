package core

import (
	"context"
	"time"
)

// View 是一条聚合后的浏览记录（某用户对某本书）。
type View struct {
	UserID       string    `json:"user_id"`
	BookID       string    `json:"book_id"`
	Count        int64     `json:"count"`
	LastViewedAt time.Time `json:"last_viewed_at"`
}

// CatalogStore 是书籍目录的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 每次调用返回一份只读快照，引擎不持有、不缓存
//
// 实现：
//   - store.KVCatalog（基于 core.KeyValueStore：内存 / Redis）
//   - store.PostgresCatalog（基于 gorm）
type CatalogStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// ListBooks 返回完整目录快照，顺序稳定（决定同分时的先后）
	ListBooks(ctx context.Context) ([]Book, error)

	// GetBook 按 ID 读取单本书，不存在时返回 ErrBookNotFound
	GetBook(ctx context.Context, id string) (Book, error)

	// PutBooks 批量写入/覆盖书籍
	PutBooks(ctx context.Context, books []Book) error
}

// HistoryStore 是用户浏览历史的领域接口。
type HistoryStore interface {
	// ListViews 返回用户的全部浏览记录（每本书一条，已聚合次数）
	ListViews(ctx context.Context, userID string) ([]View, error)

	// RecordView 记录一次浏览：次数 +1，更新最近浏览时间，同时累加书籍热度
	RecordView(ctx context.Context, userID, bookID string, at time.Time) error
}
