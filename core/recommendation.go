package core

// Recommendation 是引擎输出的一条结果。
// 相似推荐模式下 Score 为余弦相似度；个性化模式下为加权融合分。
type Recommendation struct {
	Book  Book    `json:"book"`
	Score float64 `json:"score"`
}

// 诊断原因
const (
	ReasonMissingGenre = "missing_genre" // 缺少类别，无法参与相似度计算
	ReasonMissingID    = "missing_id"    // 缺少 ID
	ReasonInvalid      = "invalid"       // 其他校验失败
)

// Diagnostic 描述一个被跳过的物品，供调用方审计数据质量。
type Diagnostic struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// GenreProfile 是用户类别兴趣：小写类别 -> 累计兴趣权重（通常是浏览次数之和）。
type GenreProfile map[string]float64

// Add 把权重累加到一组类别上（类别会被标准化）。
func (p GenreProfile) Add(genres []string, weight float64) {
	for _, g := range NormalizeGenres(genres) {
		p[g] += weight
	}
}

// Total 返回所有兴趣权重之和。
func (p GenreProfile) Total() float64 {
	var total float64
	for _, w := range p {
		total += w
	}
	return total
}

// Normalized 返回键标准化后的副本，同名键的权重会合并。
func (p GenreProfile) Normalized() GenreProfile {
	out := make(GenreProfile, len(p))
	for g, w := range p {
		if key := NormalizeGenre(g); key != "" {
			out[key] += w
		}
	}
	return out
}
