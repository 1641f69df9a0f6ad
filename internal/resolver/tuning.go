package resolver

import "region-api/internal/region"

// Tuning：级联各策略的分值、阈值与打分权重
type Tuning struct {
	ExactScore       float64 // 主查询精确命中
	SuffixScore      float64 // 后缀回退变体命中
	AliasScore       float64
	HierarchyScore   float64
	PhoneticWeight   float64 // 最终分 = 拼音相似度 × 权重
	FuzzyWeight      float64
	ContainsWeight   float64
	Thresholds       map[region.Strategy]float64
	NameWeight       float64
	LengthWeight     float64
	ParentBonus      float64
	LevelWeights     map[region.Level]float64
	SearchLimit      int
	ContainsLimit    int
	PhoneticRetryMin int // 拼音无候选时以前半段重试的最小键长
}

func DefaultTuning() Tuning {
	return Tuning{
		ExactScore:     1.0,
		SuffixScore:    0.95,
		AliasScore:     0.9,
		HierarchyScore: 0.85,
		PhoneticWeight: 0.8,
		FuzzyWeight:    0.8,
		ContainsWeight: 0.6,
		Thresholds: map[region.Strategy]float64{
			region.StrategyExact:        0.95,
			region.StrategyAlias:        0.9,
			region.StrategyHierarchical: 0.85,
			region.StrategyPhonetic:     0.8,
			region.StrategyFuzzy:        0.7,
			region.StrategyContains:     0.6,
		},
		NameWeight:   0.6,
		LengthWeight: 0.1,
		ParentBonus:  0.2,
		LevelWeights: map[region.Level]float64{
			region.LevelProvince:   0.3,
			region.LevelPrefecture: 0.2,
			region.LevelCounty:     0.1,
		},
		SearchLimit:      10,
		ContainsLimit:    5,
		PhoneticRetryMin: 6,
	}
}

// Threshold：策略接受阈值，未配置时为 0
func (t Tuning) Threshold(s region.Strategy) float64 { return t.Thresholds[s] }
