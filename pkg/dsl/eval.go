package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Jegankumard/OptGiftAI/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存编译后的表达式，key 为表达式原文
	programs sync.Map
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		// 定义变量类型
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Compile 编译表达式并缓存，语法错误在这里暴露。
func Compile(expr string) (cel.Program, error) {
	if p, ok := programs.Load(expr); ok {
		return p.(cel.Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	programs.Store(expr, prg)
	return prg, nil
}

// Eval 是商品约束 DSL 解释器，使用 CEL (Common Expression Language) 实现。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.price <= 100.0 / item.rating >= 4.0 / item.score > 0.5
//   - 字符串：item.category == "Jewelry" / item.title.contains("watch")
//   - 列表："wedding" in item.tags
//   - 请求：rctx.occasion == "birthday" && item.price < 50.0
//   - 标签：label.recall_source != null
//
// 注意：数值字段均为 double，比较时字面量需写成 100.0 而不是 100。
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。空表达式恒为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]any {
	labels := make(map[string]any, len(e.item.Labels))
	for k, v := range e.item.Labels {
		labels[k] = v.Value
	}

	features := make(map[string]any, len(e.item.Features))
	for k, v := range e.item.Features {
		features[k] = v
	}

	tags := make([]any, len(e.item.Tags))
	for i, t := range e.item.Tags {
		tags[i] = t
	}

	item := map[string]any{
		"id":          e.item.ID,
		"title":       e.item.Title,
		"description": e.item.Description,
		"category":    e.item.Category,
		"vendor":      e.item.Vendor,
		"price":       e.item.Price,
		"rating":      e.item.Rating,
		"tags":        tags,
		"score":       e.item.Score,
		"confidence":  e.item.Confidence,
		"features":    features,
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		params := make(map[string]any, len(e.rctx.Params))
		for k, v := range e.rctx.Params {
			params[k] = v
		}
		rctx = map[string]any{
			"user_id":      e.rctx.UserID,
			"query":        e.rctx.Query,
			"occasion":     e.rctx.Occasion,
			"relationship": e.rctx.Relationship,
			"params":       params,
		}
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  rctx,
	}
}
