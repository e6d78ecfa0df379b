package core

// Strategy 是推荐策略的封闭集合。
// 按字符串 if/else 分发权重是反模式：Blender 侧用命名权重向量变体实现，
// 这里只负责解析与校验。
type Strategy string

const (
	StrategyHybrid        Strategy = "hybrid"
	StrategyCollaborative Strategy = "collaborative"
	StrategyContentBased  Strategy = "content_based"
)

// ValidStrategy 检查策略是否被识别。
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyHybrid, StrategyCollaborative, StrategyContentBased:
		return true
	}
	return false
}

// ResolveStrategy 按部署策略解析请求中的 strategy 参数。
//   - reject=true：未识别的值返回 ErrInvalidStrategy（400 语义）
//   - reject=false：未识别/缺失的值回落到 hybrid（需在部署文档中显式声明）
func ResolveStrategy(raw string, reject bool) (Strategy, error) {
	if raw == "" {
		return StrategyHybrid, nil
	}
	s := Strategy(raw)
	if ValidStrategy(s) {
		return s, nil
	}
	if reject {
		return "", NewDomainError(ModuleService, ErrorCodeInvalidStrategy, "service: unknown strategy "+raw)
	}
	return StrategyHybrid, nil
}
