package feature

import (
	"fmt"
	"math"
)

// Field 标记组合向量中一个分量来自哪个字段。
type Field uint8

const (
	FieldTitle    Field = iota + 1 // 书名 TF-IDF
	FieldGenre                     // 类别 multi-hot
	FieldSynopsis                  // 简介 TF-IDF
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldGenre:
		return "genre"
	case FieldSynopsis:
		return "synopsis"
	default:
		return "unknown"
	}
}

// Key 是组合向量的带标签键：文本字段用 Term，类别字段用 Index。
// 同一 Field 下不同 Term/Index 的键互不相等，不会出现前缀拼接产生的串键冲突。
type Key struct {
	Field Field
	Term  string
	Index int
}

// TermKey 创建文本字段键。
func TermKey(field Field, term string) Key {
	return Key{Field: field, Term: term}
}

// IndexKey 创建类别字段键。
func IndexKey(field Field, index int) Key {
	return Key{Field: field, Index: index}
}

func (k Key) String() string {
	if k.Field == FieldGenre {
		return fmt.Sprintf("%s:%d", k.Field, k.Index)
	}
	return fmt.Sprintf("%s:%s", k.Field, k.Term)
}

// Vector 是按 Key 索引的稀疏向量。
//
// 键按插入顺序记录；Composer 为同一次调用的所有物品按相同顺序插入同一组键，
// 因此 Dot(a, b) 与 Dot(b, a) 的累加顺序一致，结果逐位相等。
type Vector struct {
	keys    []Key
	weights map[Key]float64
}

// NewVector 创建容量为 n 的空向量。
func NewVector(n int) *Vector {
	return &Vector{
		keys:    make([]Key, 0, n),
		weights: make(map[Key]float64, n),
	}
}

// Set 写入分量；负数权重按 0 处理。
func (v *Vector) Set(k Key, w float64) {
	if w < 0 {
		w = 0
	}
	if _, ok := v.weights[k]; !ok {
		v.keys = append(v.keys, k)
	}
	v.weights[k] = w
}

// Get 读取分量，不存在时为 0。
func (v *Vector) Get(k Key) float64 {
	if v == nil {
		return 0
	}
	return v.weights[k]
}

// Has 判断键是否在向量的键空间中。
func (v *Vector) Has(k Key) bool {
	if v == nil {
		return false
	}
	_, ok := v.weights[k]
	return ok
}

// Len 返回键数量（含权重为 0 的键）。
func (v *Vector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys 返回插入顺序的键副本。
func (v *Vector) Keys() []Key {
	if v == nil {
		return nil
	}
	out := make([]Key, len(v.keys))
	copy(out, v.keys)
	return out
}

// Dot 返回点积。按 v 的键顺序累加。
func (v *Vector) Dot(o *Vector) float64 {
	if v == nil || o == nil {
		return 0
	}
	var dot float64
	for _, k := range v.keys {
		a := v.weights[k]
		if a == 0 {
			continue
		}
		dot += a * o.weights[k]
	}
	return dot
}

// Norm 返回欧氏范数。
func (v *Vector) Norm() float64 {
	if v == nil {
		return 0
	}
	var sum float64
	for _, k := range v.keys {
		w := v.weights[k]
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Cosine 返回余弦相似度：dot / (|a|·|b|)，任一范数为 0 时为 0。
// 分量非负，结果落在 [0, 1]；浮点误差超出上界时截断为 1。
func Cosine(a, b *Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	sim := a.Dot(b) / (na * nb)
	if sim > 1 {
		return 1
	}
	if sim < 0 {
		return 0
	}
	return sim
}
