package utils

import "strconv"

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由业务自定义；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank ...
}

// 常用 Label key
const (
	LabelRecallSource = "recall_source" // 召回来源：candidates / similar / popular
	LabelRankModel    = "rank_model"    // 排序模型：personal
	LabelFiltered     = "filtered"      // 被过滤原因
	LabelScorePart    = "score_parts"   // 个性化分项（genre/popularity/recency）
)

// NewLabel 创建一个 Label。
func NewLabel(value, source string) Label {
	return Label{Value: value, Source: source}
}

// FloatLabel 用于把分数写成 Label（保留 4 位小数）。
func FloatLabel(v float64, source string) Label {
	return Label{Value: strconv.FormatFloat(v, 'f', 4, 64), Source: source}
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
