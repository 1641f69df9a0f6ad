package region

// Strategy：匹配策略名称，同时也是级联中的优先级标识
type Strategy string

const (
	StrategyExact        Strategy = "exact"
	StrategyAlias        Strategy = "alias"
	StrategyHierarchical Strategy = "hierarchical"
	StrategyPhonetic     Strategy = "phonetic"
	StrategyFuzzy        Strategy = "fuzzy"
	StrategyContains     Strategy = "contains"
)

// Strategies：固定的级联顺序
var Strategies = []Strategy{
	StrategyExact,
	StrategyAlias,
	StrategyHierarchical,
	StrategyPhonetic,
	StrategyFuzzy,
	StrategyContains,
}

// Confidence：由分数派生的置信度档位
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceOf：分数到置信度的单调映射
func ConfidenceOf(score float64) Confidence {
	switch {
	case score >= 0.9:
		return ConfidenceHigh
	case score >= 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// 文档注释：单次查询的匹配结果
// 背景：仅作为查询产物与缓存载荷，不单独持久化；Confidence 始终由 Score 派生。
type MatchResult struct {
	Region     Region     `json:"region"`
	Score      float64    `json:"score"`
	Strategy   Strategy   `json:"strategy"`
	Confidence Confidence `json:"confidence"`
}

// NewMatch：构造结果并填充置信度
func NewMatch(r Region, score float64, s Strategy) *MatchResult {
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return &MatchResult{Region: r, Score: score, Strategy: s, Confidence: ConfidenceOf(score)}
}
