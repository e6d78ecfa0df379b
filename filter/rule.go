package filter

import (
	"context"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
	"github.com/jayanthansenthilkumar/Dhiksha/pkg/dsl"
)

// Rule 是规则过滤器：表达式命中的 item 被过滤。
// 表达式用 CEL 语法，由运营在配置中维护，例如：
//
//	item.signals.popularity < 0.05 && label.recall_source == "hot"
//
// 表达式在构造时编译一次，逐 item 求值。
type Rule struct {
	prg *dsl.Program
}

// NewRule 编译一条过滤规则。表达式非法时返回错误，服务启动即失败，
// 避免带病上线。
func NewRule(expr string) (*Rule, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Rule{prg: prg}, nil
}

func (f *Rule) Name() string { return "filter.rule" }

func (f *Rule) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.prg == nil || f.prg.String() == "" {
		return false, nil
	}
	matched, err := f.prg.Evaluate(item, rctx)
	if err != nil {
		return false, err
	}
	return matched, nil
}
