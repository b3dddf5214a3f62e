package feature

import (
	"math"
	"sort"
)

// TermVector 是单个文档的稀疏词项权重：term -> weight。
// 不存在的词项权重视为 0；所有权重非负。
type TermVector map[string]float64

// Weight 返回词项权重，不存在时为 0。
func (v TermVector) Weight(term string) float64 {
	return v[term]
}

// TFIDF 是对一组文档（同一文本字段）拟合得到的结果。
type TFIDF struct {
	// Vectors 与输入文档一一对应
	Vectors []TermVector

	// Vocabulary 是语料中出现过的全部词项（升序），
	// Composer 用它对齐所有物品的键空间
	Vocabulary []string

	// DocFreq 是每个词项出现的文档数
	DocFreq map[string]int

	// N 是文档总数
	N int
}

// BuildTFIDF 计算 TF-IDF：
//
//	tf(t, d)  = count(t, d) / len(d)          （无词项的文档得到空向量）
//	idf(t)    = ln(N / max(df(t), 1))
//	weight    = tf × idf
//
// 出现在全部文档中的词项 idf 为 0，权重也为 0。
func BuildTFIDF(docs []string) *TFIDF {
	tok := NewTokenizer()
	n := len(docs)

	counts := make([]map[string]int, n)
	totals := make([]int, n)
	df := make(map[string]int)

	for i, doc := range docs {
		terms := tok.Terms(doc)
		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		counts[i] = tf
		totals[i] = len(terms)
	}

	m := &TFIDF{
		Vectors:    make([]TermVector, n),
		Vocabulary: make([]string, 0, len(df)),
		DocFreq:    df,
		N:          n,
	}
	for t := range df {
		m.Vocabulary = append(m.Vocabulary, t)
	}
	sort.Strings(m.Vocabulary)

	for i := range docs {
		vec := make(TermVector, len(counts[i]))
		if totals[i] > 0 {
			docLen := float64(totals[i])
			for t, c := range counts[i] {
				vec[t] = float64(c) / docLen * m.IDF(t)
			}
		}
		m.Vectors[i] = vec
	}
	return m
}

// IDF 返回词项的逆文档频率，文档频率下限为 1。
func (m *TFIDF) IDF(term string) float64 {
	if m.N == 0 {
		return 0
	}
	df := m.DocFreq[term]
	if df < 1 {
		df = 1
	}
	return math.Log(float64(m.N) / float64(df))
}
