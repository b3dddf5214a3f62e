package core

import "time"

// EngineConfig 是推荐引擎的默认值配置接口。
type EngineConfig interface {
	// DefaultTopN 返回相似推荐默认返回数量（topN <= 0 时使用）
	DefaultTopN() int

	// MinUserCount 返回个性化推荐数量下限
	MinUserCount() int

	// MaxUserCount 返回个性化推荐数量上限
	MaxUserCount() int

	// RecencyHorizon 返回时效分衰减到 0 的时长
	RecencyHorizon() time.Duration
}

// DefaultEngineConfig 是默认的引擎配置实现。
type DefaultEngineConfig struct{}

func (c *DefaultEngineConfig) DefaultTopN() int {
	return 10
}

func (c *DefaultEngineConfig) MinUserCount() int {
	return 10
}

func (c *DefaultEngineConfig) MaxUserCount() int {
	return 20
}

func (c *DefaultEngineConfig) RecencyHorizon() time.Duration {
	return 365 * 24 * time.Hour
}

// ClampCount 把请求数量限制在 [lo, hi] 闭区间。
func ClampCount(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
