package core

import (
	"strings"
	"time"
)

// Book 是目录中的一本书，由外部 Catalog Store 提供，引擎只读取按值传入的快照。
//
// 可选字段的缺省约定：
//   - Synopsis 为空表示无简介
//   - Genres 为空表示缺少类别（相似度计算中会被跳过并产生诊断信息）
//   - Popularity 为 0 表示无热度数据
//   - CreatedAt 为零值表示无创建时间（时效分为 0）
type Book struct {
	ID         string    `json:"id" validate:"required"`
	ISBN       string    `json:"isbn,omitempty"`
	Title      string    `json:"title" validate:"required"`
	Author     string    `json:"author"`
	Synopsis   string    `json:"synopsis,omitempty"`
	Genres     []string  `json:"genres,omitempty"`
	Publisher  string    `json:"publisher,omitempty"`
	CoverURL   string    `json:"cover_url,omitempty"`
	Popularity int64     `json:"popularity,omitempty" validate:"gte=0"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// HasGenres 判断书籍是否携带至少一个有效类别。
func (b Book) HasGenres() bool {
	return len(NormalizeGenres(b.Genres)) > 0
}

// NormalizedGenres 返回去空白、小写、去重后的类别列表（保持首次出现顺序）。
func (b Book) NormalizedGenres() []string {
	return NormalizeGenres(b.Genres)
}

// genreSeparators 是单字段多类别字符串支持的分隔符。
const genreSeparators = ",;|/"

// ParseGenres 把一个分隔字符串（如 "Fantasy, Sains"）拆成标准化类别列表。
func ParseGenres(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(genreSeparators, r)
	})
	return NormalizeGenres(parts)
}

// NormalizeGenre 标准化单个类别标签：去首尾空白并转小写。
func NormalizeGenre(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// NormalizeGenres 标准化一组类别标签。
// 每个元素自身也可能是分隔字符串，会被继续拆分；空标签被丢弃，重复标签只保留第一次。
func NormalizeGenres(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, raw := range labels {
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
			return strings.ContainsRune(genreSeparators, r)
		}) {
			g := NormalizeGenre(part)
			if g == "" {
				continue
			}
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Corpus 是一次计算使用的书籍有序集合，顺序决定相同分数时的先后。
type Corpus []Book

// Index 返回 ID 对应书籍在 Corpus 中的下标，不存在时返回 -1。
func (c Corpus) Index(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}
