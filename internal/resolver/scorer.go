package resolver

import "region-api/internal/region"

// 文档注释：候选综合打分
// 背景：名称相似度 × 0.6 + 层级权重 + 长度接近度 × 0.1 + 父级加成（候选的父编码等于上一段已解析区划编码时加 0.2）。
// 约束：只用于在多个候选间择优，不作为最终匹配分；同分保持候选原有顺序。
type Scorer struct {
	t Tuning
}

func NewScorer(t Tuning) Scorer { return Scorer{t: t} }

func (s Scorer) Score(query string, c region.Region, parent *region.Region) float64 {
	v := nameSimilarity(query, c.Name) * s.t.NameWeight
	v += s.t.LevelWeights[c.Level]
	v += lengthProximity(query, c.Name) * s.t.LengthWeight
	if parent != nil && c.ParentCode != "" && c.ParentCode == parent.Code {
		v += s.t.ParentBonus
	}
	return v
}

// Best：按综合分选出最佳候选，候选为空时 ok=false
func (s Scorer) Best(query string, cands []region.Region, parent *region.Region) (best region.Region, score float64, ok bool) {
	for i, c := range cands {
		v := s.Score(query, c, parent)
		if i == 0 || v > score {
			best, score, ok = c, v, true
		}
	}
	return best, score, ok
}

// lengthProximity：max(0, 1 − |len(q) − len(name)|/10)
func lengthProximity(query, name string) float64 {
	d := runeLen(query) - runeLen(name)
	if d < 0 {
		d = -d
	}
	v := 1 - float64(d)/10
	if v < 0 {
		return 0
	}
	return v
}
