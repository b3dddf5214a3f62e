package store

import "github.com/rushteam/bookrec/core"

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store / core.KeyValueStore / core.CatalogStore / core.HistoryStore 接口。
//
// 示例：
//
//	var kv core.KeyValueStore = NewMemoryStore()
//	var catalog core.CatalogStore = NewKVCatalog(kv)

// ErrNotFound 是 core.ErrStoreNotFound 的别名，便于包内使用。
var ErrNotFound = core.ErrStoreNotFound
