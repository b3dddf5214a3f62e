package core

import "github.com/rushteam/bookrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：书籍快照、分数、特征、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Book     Book
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Book:     Book{ID: id},
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewBookItem 用书籍快照创建 Item。
func NewBookItem(b Book) *Item {
	it := NewItem(b.ID)
	it.Book = b
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Recommendation 把 Item 转为对外输出结构。
func (it *Item) Recommendation() Recommendation {
	return Recommendation{Book: it.Book, Score: it.Score}
}

// ItemsToRecommendations 按顺序转换，忽略 nil。
func ItemsToRecommendations(items []*Item) []Recommendation {
	out := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.Recommendation())
	}
	return out
}
