package feature

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer 把一个文本字段切成词项序列。
//
// 规则：先做 NFC 规范化与小写化，然后以“词字符”（字母、组合符号、数字、下划线）的
// 最长连续片段作为词项，标点和空白都是分隔符。
//
// 注意：内部的 cases.Caser 有状态，Tokenizer 不能在多个 goroutine 间共享；
// 每次构建 TF-IDF 时各自创建一个即可。
type Tokenizer struct {
	caser cases.Caser
}

// NewTokenizer 创建词项切分器。
func NewTokenizer() *Tokenizer {
	return &Tokenizer{caser: cases.Lower(language.Und)}
}

// Terms 返回文本中的词项（保持出现顺序，允许重复）。
func (t *Tokenizer) Terms(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lowered := t.caser.String(norm.NFC.String(text))
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !isWordRune(r)
	})
}

// ExtractTerms 是 Tokenizer.Terms 的便捷形式。
func ExtractTerms(text string) []string {
	return NewTokenizer().Terms(text)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Folder 用于大小写无关的文本匹配（例如按书名片段查找）。
// 与 Tokenizer 一样不能跨 goroutine 共享。
type Folder struct {
	caser cases.Caser
}

// NewFolder 创建大小写折叠器。
func NewFolder() *Folder {
	return &Folder{caser: cases.Fold()}
}

// Fold 返回规范化并折叠大小写后的文本。
func (f *Folder) Fold(s string) string {
	return f.caser.String(norm.NFC.String(s))
}

// Contains 判断 haystack 是否包含 needle（大小写无关）。
func (f *Folder) Contains(haystack, needle string) bool {
	return strings.Contains(f.Fold(haystack), f.Fold(needle))
}
