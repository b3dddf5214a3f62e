// Package catalog 把抓取得到的 books_raw.json 转成目录数据。
//
// 原始格式是一个 JSON 数组：
//
//	[{"title": "...", "author": "...", "isbn": "...", "description": "...",
//	  "imageUrl": "...", "category": "Fiksi", "specifications": {"Penerbit": "..."}}]
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/conv"
)

// idNamespace 为没有 ISBN 的书生成确定性 ID：同一书名+作者永远得到同一个 ID。
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rushteam/bookrec/books"))

// RawBook 是 books_raw.json 中的一条记录。
type RawBook struct {
	Title          string         `json:"title" validate:"required"`
	Author         string         `json:"author"`
	ISBN           string         `json:"isbn"`
	Description    string         `json:"description"`
	ImageURL       string         `json:"imageUrl"`
	Category       string         `json:"category"`
	Specifications map[string]any `json:"specifications"`
}

// Publisher 返回 specifications.Penerbit。
func (r RawBook) Publisher() string {
	s, _ := conv.ToString(r.Specifications["Penerbit"])
	return strings.TrimSpace(s)
}

// Genre 是类别表中的一行。
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var validate = validator.New()

// Decode 解析 books_raw.json 内容。
func Decode(r io.Reader) ([]RawBook, error) {
	var raw []RawBook
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return raw, nil
}

// LoadFile 读取并解析 books_raw.json。
func LoadFile(path string) ([]RawBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// BookID 返回书的 ID：优先 ISBN，否则由书名与作者派生 UUIDv5。
func BookID(r RawBook) string {
	if isbn := strings.TrimSpace(r.ISBN); isbn != "" {
		return isbn
	}
	key := strings.ToLower(strings.TrimSpace(r.Title)) + "\x00" + strings.ToLower(strings.TrimSpace(r.Author))
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// Convert 把原始记录转成 core.Book。
// 校验失败或 ID 重复的记录被跳过（保留第一次出现），记录在诊断信息里。
// 没有 category 的书照常导入，只是 Genres 为空。
func Convert(raw []RawBook, importedAt time.Time) ([]core.Book, []core.Diagnostic) {
	books := make([]core.Book, 0, len(raw))
	var skipped []core.Diagnostic
	seen := make(map[string]struct{}, len(raw))

	for i, r := range raw {
		if err := validate.Struct(r); err != nil {
			skipped = append(skipped, core.Diagnostic{
				ItemID: r.ISBN,
				Reason: core.ReasonInvalid,
				Detail: fmt.Sprintf("record %d: %v", i, err),
			})
			continue
		}
		id := BookID(r)
		if _, dup := seen[id]; dup {
			skipped = append(skipped, core.Diagnostic{
				ItemID: id,
				Reason: core.ReasonInvalid,
				Detail: fmt.Sprintf("record %d: duplicate id", i),
			})
			continue
		}
		seen[id] = struct{}{}

		b := core.Book{
			ID:        id,
			ISBN:      strings.TrimSpace(r.ISBN),
			Title:     strings.TrimSpace(r.Title),
			Author:    strings.TrimSpace(r.Author),
			Synopsis:  strings.TrimSpace(r.Description),
			Publisher: r.Publisher(),
			CoverURL:  strings.TrimSpace(r.ImageURL),
			CreatedAt: importedAt,
		}
		if c := strings.TrimSpace(r.Category); c != "" {
			b.Genres = []string{c}
		}
		books = append(books, b)
	}
	return books, skipped
}

// GenreTable 返回去重后的类别表：按名称升序，ID 从 1 开始。
// 名称大小写不同视为同一类别，保留第一次出现的写法。
func GenreTable(raw []RawBook) []Genre {
	names := make(map[string]string)
	for _, r := range raw {
		c := strings.TrimSpace(r.Category)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := names[key]; !ok {
			names[key] = c
		}
	}
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	table := make([]Genre, len(sorted))
	for i, n := range sorted {
		table[i] = Genre{ID: i + 1, Name: n}
	}
	return table
}

// Result 是一次导入的结果。
type Result struct {
	Imported int               `json:"imported"`
	Genres   []Genre           `json:"genres"`
	Skipped  []core.Diagnostic `json:"skipped,omitempty"`
}

// Importer 把 books_raw.json 写入 CatalogStore。
type Importer struct {
	Store core.CatalogStore

	// Now 返回导入时间（作为书的 CreatedAt），测试时可替换
	Now func() time.Time
}

func (im *Importer) now() time.Time {
	if im.Now != nil {
		return im.Now()
	}
	return time.Now()
}

// Import 解析 r 并写入目录。
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	raw, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return im.ImportRaw(ctx, raw)
}

// ImportRaw 写入已解析的记录。
func (im *Importer) ImportRaw(ctx context.Context, raw []RawBook) (*Result, error) {
	if im.Store == nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "importer: store is nil")
	}
	books, skipped := Convert(raw, im.now())
	if len(books) > 0 {
		if err := im.Store.PutBooks(ctx, books); err != nil {
			return nil, fmt.Errorf("put books into %s: %w", im.Store.Name(), err)
		}
	}
	return &Result{
		Imported: len(books),
		Genres:   GenreTable(raw),
		Skipped:  skipped,
	}, nil
}
