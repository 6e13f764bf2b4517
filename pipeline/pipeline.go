package pipeline

import (
	"context"
	"fmt"

	"github.com/Jegankumard/OptGiftAI/core"
)

// Pipeline 是按顺序执行的 Node 链。
type Pipeline struct {
	Nodes []Node
}

// Append 返回在末尾追加 nodes 的新 Pipeline，原 Pipeline 不变。
func (p *Pipeline) Append(nodes ...Node) *Pipeline {
	out := make([]Node, 0, len(p.Nodes)+len(nodes))
	out = append(out, p.Nodes...)
	return &Pipeline{Nodes: append(out, nodes...)}
}

// Validate 检查编排：recall 节点只能连续出现在开头，否则前面节点的结果会被丢弃。
func (p *Pipeline) Validate() error {
	seenOther := false
	for i, n := range p.Nodes {
		if n == nil {
			return fmt.Errorf("node #%d is nil", i)
		}
		if n.Kind() != KindRecall {
			seenOther = true
			continue
		}
		if seenOther {
			return fmt.Errorf("recall node %s at #%d must precede filter/rank nodes", n.Name(), i)
		}
	}
	return nil
}

// StartsWithRecall 表示 Pipeline 是否自带候选生成。
func (p *Pipeline) StartsWithRecall() bool {
	return len(p.Nodes) > 0 && p.Nodes[0].Kind() == KindRecall
}

// Run 依次执行每个 Node。ctx 取消时立即返回。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, items)
		if err != nil {
			return nil, fmt.Errorf("%s node %s: %w", node.Kind(), node.Name(), err)
		}
		items = next
	}
	return items, nil
}
