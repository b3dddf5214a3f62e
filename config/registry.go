package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// 配置驱动的推荐链路需要 import _ "github.com/rushteam/bookrec/config/builders"，
// 由它的 init 把内置节点（recall.candidates、filter、rank.personal、rerank.topn 等）注册到默认注册表。

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 YAML 中的 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

// Registry 保存节点类型到构建函数的映射，并发安全。
type Registry struct {
	mu       sync.RWMutex
	builders map[string]NodeBuilder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]NodeBuilder)}
}

// Register 登记一种节点类型。类型名为空、builder 为 nil 或类型已登记时返回 INVALID_INPUT。
func (r *Registry) Register(typeName string, builder NodeBuilder) error {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" || builder == nil {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			"config: node type and builder are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.builders[typeName]; dup {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			fmt.Sprintf("config: node type %q registered twice", typeName))
	}
	r.builders[typeName] = builder
	return nil
}

// Types 返回已登记的类型（排序）。
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typesLocked()
}

// Factory 返回当前登记内容的快照，之后的 Register 不影响它。
func (r *Registry) Factory() *pipeline.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range r.builders {
		f.Register(typeName, builder)
	}
	return f
}

// Validate 在构建前检查链路里的每个节点：
// 缺少 type 返回 INVALID_INPUT，未登记的类型返回 NOT_SUPPORTED（消息中列出可用类型）。
func (r *Registry) Validate(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, nc := range cfg.Pipeline.Nodes {
		if strings.TrimSpace(nc.Type) == "" {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("config: node #%d has no type", i))
		}
		if _, ok := r.builders[nc.Type]; !ok {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeNotSupported,
				fmt.Sprintf("config: unsupported node type %q (supported: %s)", nc.Type, strings.Join(r.typesLocked(), ", ")))
		}
	}
	return nil
}

func (r *Registry) typesLocked() []string {
	types := make([]string, 0, len(r.builders))
	for t := range r.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

var defaultRegistry = NewRegistry()

// Register 向默认注册表登记节点类型，供 init 使用；登记失败直接 panic。
func Register(typeName string, builder NodeBuilder) {
	if err := defaultRegistry.Register(typeName, builder); err != nil {
		panic(err)
	}
}

// SupportedTypes 返回默认注册表中的节点类型。
func SupportedTypes() []string { return defaultRegistry.Types() }

// DefaultFactory 基于默认注册表构建 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory { return defaultRegistry.Factory() }

// ValidatePipelineConfig 用默认注册表校验链路配置。
func ValidatePipelineConfig(cfg *pipeline.Config) error { return defaultRegistry.Validate(cfg) }
