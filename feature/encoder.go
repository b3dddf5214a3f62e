package feature

import (
	"sort"

	"github.com/rushteam/bookrec/core"
)

// GenreVocabulary 是一次调用内的类别词表：有效物品上出现过的去重、小写类别，升序排列。
// 词表只在调用内有效，每次都从传入的 Corpus 重新构建。
type GenreVocabulary []string

// BuildGenreVocabulary 从书籍集合构建类别词表。没有类别的书不贡献任何标签。
func BuildGenreVocabulary(books []core.Book) GenreVocabulary {
	seen := make(map[string]struct{})
	for i := range books {
		for _, g := range books[i].NormalizedGenres() {
			seen[g] = struct{}{}
		}
	}
	vocab := make(GenreVocabulary, 0, len(seen))
	for g := range seen {
		vocab = append(vocab, g)
	}
	sort.Strings(vocab)
	return vocab
}

// IndexOf 返回标签下标，不存在时返回 -1。
func (v GenreVocabulary) IndexOf(label string) int {
	label = core.NormalizeGenre(label)
	i := sort.SearchStrings(v, label)
	if i < len(v) && v[i] == label {
		return i
	}
	return -1
}

// GenreVector 是对齐 GenreVocabulary 的定长 0/1 向量。
type GenreVector []float64

// IsZero 判断是否全 0。
func (g GenreVector) IsZero() bool {
	for _, x := range g {
		if x != 0 {
			return false
		}
	}
	return true
}

// MultiHotEncoder Multi-Hot 编码
// 把一个物品的多个类别标签编码为定长二进制向量，每个词表标签对应一个维度。
type MultiHotEncoder struct {
	Vocabulary GenreVocabulary
}

// NewMultiHotEncoder 创建 Multi-Hot 编码器
func NewMultiHotEncoder(vocab GenreVocabulary) *MultiHotEncoder {
	return &MultiHotEncoder{Vocabulary: vocab}
}

// Encode 编码一组类别标签；标签会先被标准化（支持分隔字符串）。
// 没有类别信息时返回全 0 向量。
func (e *MultiHotEncoder) Encode(genres []string) GenreVector {
	vec := make(GenreVector, len(e.Vocabulary))
	for _, g := range core.NormalizeGenres(genres) {
		if i := e.Vocabulary.IndexOf(g); i >= 0 {
			vec[i] = 1
		}
	}
	return vec
}

// EncodeBook 编码一本书；ok 为 false 表示该书缺少类别，应被排除出相似度候选。
func (e *MultiHotEncoder) EncodeBook(b core.Book) (vec GenreVector, ok bool) {
	vec = e.Encode(b.Genres)
	return vec, !vec.IsZero()
}
