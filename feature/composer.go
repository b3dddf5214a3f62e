package feature

import "github.com/rushteam/bookrec/core"

// Composition 是一次 Compose 调用的结果。
//
// 只有“有效”书籍（有 ID、有类别、ID 不重复）进入 Books/Vectors；
// 其余书籍记录在 Skipped 中，调用方可据此审计数据质量。
type Composition struct {
	// Books 是有效书籍，保持 Corpus 原顺序
	Books []core.Book

	// Vectors 与 Books 一一对应，所有向量共享同一键空间与键顺序
	Vectors []*Vector

	// Skipped 是被排除的书籍诊断信息
	Skipped []core.Diagnostic

	// 本次调用的词表
	Genres             GenreVocabulary
	TitleVocabulary    []string
	SynopsisVocabulary []string

	index map[string]int
}

// Lookup 按 ID 返回有效书籍的位置，不存在（或被跳过）时 ok 为 false。
func (c *Composition) Lookup(id string) (pos int, ok bool) {
	pos, ok = c.index[id]
	return pos, ok
}

// Dimension 返回组合向量的维度。
func (c *Composition) Dimension() int {
	return len(c.TitleVocabulary) + len(c.Genres) + len(c.SynopsisVocabulary)
}

// Compose 把 Corpus 中每本有效书籍组合为一个向量：
//
//	[ 书名 TF-IDF（按书名词表） | 类别 multi-hot（按类别词表） | 简介 TF-IDF（按简介词表） ]
//
// TF-IDF 只在有效书籍上拟合，保证所有参与比较的向量拥有完全相同的键集合。
// 各字段按原始量级拼接，不做跨字段加权。
func Compose(corpus []core.Book) *Composition {
	c := &Composition{index: make(map[string]int, len(corpus))}

	for i := range corpus {
		b := corpus[i]
		switch {
		case b.ID == "":
			c.Skipped = append(c.Skipped, core.Diagnostic{
				Reason: core.ReasonMissingID,
				Detail: "book without id: " + b.Title,
			})
			continue
		case !b.HasGenres():
			c.Skipped = append(c.Skipped, core.Diagnostic{
				ItemID: b.ID,
				Reason: core.ReasonMissingGenre,
				Detail: "excluded from similarity candidates",
			})
			continue
		}
		if _, dup := c.index[b.ID]; dup {
			c.Skipped = append(c.Skipped, core.Diagnostic{
				ItemID: b.ID,
				Reason: core.ReasonInvalid,
				Detail: "duplicate id, first occurrence kept",
			})
			continue
		}
		c.index[b.ID] = len(c.Books)
		c.Books = append(c.Books, b)
	}

	if len(c.Books) == 0 {
		return c
	}

	titles := make([]string, len(c.Books))
	synopses := make([]string, len(c.Books))
	for i, b := range c.Books {
		titles[i] = b.Title
		synopses[i] = b.Synopsis
	}
	titleModel := BuildTFIDF(titles)
	synopsisModel := BuildTFIDF(synopses)

	c.Genres = BuildGenreVocabulary(c.Books)
	c.TitleVocabulary = titleModel.Vocabulary
	c.SynopsisVocabulary = synopsisModel.Vocabulary
	encoder := NewMultiHotEncoder(c.Genres)

	dim := c.Dimension()
	c.Vectors = make([]*Vector, len(c.Books))
	for i, b := range c.Books {
		vec := NewVector(dim)
		for _, t := range c.TitleVocabulary {
			vec.Set(TermKey(FieldTitle, t), titleModel.Vectors[i].Weight(t))
		}
		for j, x := range encoder.Encode(b.Genres) {
			vec.Set(IndexKey(FieldGenre, j), x)
		}
		for _, t := range c.SynopsisVocabulary {
			vec.Set(TermKey(FieldSynopsis, t), synopsisModel.Vectors[i].Weight(t))
		}
		c.Vectors[i] = vec
	}
	return c
}
