package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Term 是线性模型中的一项：特征名 + 权重。
type Term struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// LinearModel 是加权求和模型：score = Bias + Σ Weight_i * Feature_i。
//
// 与逻辑回归不同，这里不做 Sigmoid 变换，输出直接可解释：
// 当各特征落在 [0, 1] 且权重之和为 1 时，分数也落在 [0, 1]。
// Terms 按顺序累加，保证相同特征得到逐位相同的分数（稳定排序依赖这一点）。
type LinearModel struct {
	ModelName string  `json:"name"`
	Bias      float64 `json:"bias"`
	Terms     []Term  `json:"terms"`
}

// LoadLinearModel 从 JSON 文件加载模型：
//
//	{"name": "personal", "terms": [{"feature": "genre_affinity", "weight": 0.4}]}
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse linear model: %w", err)
	}
	return &m, nil
}

func (m *LinearModel) Name() string {
	if m.ModelName == "" {
		return "linear"
	}
	return m.ModelName
}

// Predict 实现 RankModel，总是返回 nil 错误。
func (m *LinearModel) Predict(features map[string]float64) (float64, error) {
	return m.Score(features), nil
}

// Score 计算加权和，缺失的特征按 0 处理。
func (m *LinearModel) Score(features map[string]float64) float64 {
	score := m.Bias
	for _, t := range m.Terms {
		score += t.Weight * features[t.Feature]
	}
	return score
}

// Weight 返回某个特征的权重，不存在时为 0。
func (m *LinearModel) Weight(feature string) float64 {
	for _, t := range m.Terms {
		if t.Feature == feature {
			return t.Weight
		}
	}
	return 0
}
