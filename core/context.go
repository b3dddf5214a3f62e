package core

import "github.com/rushteam/bookrec/pkg/utils"

// RecommendContext 承载用户/场景/目录快照，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// User 是用户画像（类别兴趣 + 已看集合）
	User *UserProfile

	// Corpus 是本次请求使用的完整目录快照。
	// 召回从这里生成候选，排序从这里计算全局热度。
	Corpus Corpus

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：cold_start、heavy_reader 等
	Labels map[string]utils.Label

	// Params 请求级参数：count、target_id、query 等
	Params map[string]any
}

// GetUserProfile 获取用户画像，没有时返回一个空画像（不为 nil）。
func (rctx *RecommendContext) GetUserProfile() *UserProfile {
	if rctx.User != nil {
		return rctx.User
	}
	return NewUserProfile(rctx.UserID)
}

// Param 读取请求参数。
func (rctx *RecommendContext) Param(key string) (any, bool) {
	if rctx == nil || rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
