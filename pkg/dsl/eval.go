// Package dsl 提供基于 CEL 的规则表达式求值，用于运营配置的内容排除规则。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 获取或创建 CEL 环境，定义变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的规则表达式，可跨请求复用（编译一次，逐 item 求值）。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "hot" / item.score > 0.7
//   - 逻辑：label.category == "A" && item.score > 0.8
//   - 信号：item.signals.popularity >= 0.9
//   - 请求：rctx.strategy == "hybrid"
//
// 注意：CEL 访问不存在的 key 会报错，存在性检查用 key in label 形式。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译一条规则表达式。空表达式视为恒真。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{expr: expr}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Evaluate 对单个 item 执行规则，返回布尔结果。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	labelAccessor := make(map[string]any)
	for k, v := range item.Labels {
		labels[k] = map[string]any{
			"value":  v.Value,
			"source": v.Source,
		}
		// label.recall_source 直接取 value，保持表达式简短
		labelAccessor[k] = v.Value
	}

	itemMap := map[string]any{
		"id":      item.ID,
		"score":   item.Score,
		"signals": item.Signals,
		"meta":    item.Meta,
		"labels":  labels,
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		rctxMap["user_id"] = rctx.UserID
		rctxMap["request_id"] = rctx.RequestID
		rctxMap["strategy"] = string(rctx.Strategy)
		rctxMap["k"] = rctx.K
		rctxMap["params"] = rctx.Params
	}

	return map[string]any{
		"item":  itemMap,
		"label": labelAccessor,
		"rctx":  rctxMap,
	}
}
