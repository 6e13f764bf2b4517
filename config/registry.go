package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/Jegankumard/OptGiftAI/pipeline"
)

// 节点类型的全局注册表。内置节点（filter.occasion、rank.linear_blend、rerank.intent_boost 等）
// 在 config/builders 的 init 中注册，使用方需 import _ "github.com/Jegankumard/OptGiftAI/config/builders"。

type NodeBuilder = pipeline.NodeBuilder

var registry = struct {
	sync.RWMutex
	builders map[string]NodeBuilder
}{builders: make(map[string]NodeBuilder)}

// Register 注册节点类型。空名或 nil builder 被忽略，同名后注册者覆盖。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	registry.Lock()
	registry.builders[typeName] = builder
	registry.Unlock()
}

// SupportedTypes 返回已注册的节点类型（排序）。
func SupportedTypes() []string {
	registry.RLock()
	defer registry.RUnlock()
	return slices.Sorted(maps.Keys(registry.builders))
}

// DefaultFactory 以注册表的快照创建 NodeFactory，之后的 Register 不影响已返回的 factory。
func DefaultFactory() *pipeline.NodeFactory {
	registry.RLock()
	defer registry.RUnlock()
	f := pipeline.NewNodeFactory()
	for name, b := range registry.builders {
		f.Register(name, b)
	}
	return f
}

// ValidatePipelineConfig 一次性报告配置中全部未注册的节点类型。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	registry.RLock()
	defer registry.RUnlock()

	var errs []error
	for i, nc := range cfg.Pipeline.Nodes {
		switch _, ok := registry.builders[nc.Type]; {
		case nc.Type == "":
			errs = append(errs, fmt.Errorf("node #%d: missing type", i))
		case !ok:
			errs = append(errs, fmt.Errorf("node #%d: unsupported type %q", i, nc.Type))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	supported := slices.Sorted(maps.Keys(registry.builders))
	errs = append(errs, fmt.Errorf("supported: %s", strings.Join(supported, ", ")))
	return errors.Join(errs...)
}
