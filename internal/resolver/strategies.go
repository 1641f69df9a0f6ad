package resolver

import (
	"context"

	"region-api/internal/region"
)

// candidate：策略产出；quality 为接受判定所用的原始匹配质量，score 为最终分
type candidate struct {
	region  region.Region
	quality float64
	score   float64
}

// strategyFunc：applicable=false 表示该策略不适用于此查询，不计入尝试次数
type strategyFunc func(ctx context.Context, q Query) (c *candidate, applicable bool, err error)

func (r *Resolver) strategies() []struct {
	name region.Strategy
	run  strategyFunc
} {
	return []struct {
		name region.Strategy
		run  strategyFunc
	}{
		{region.StrategyExact, r.exact},
		{region.StrategyAlias, r.alias},
		{region.StrategyHierarchical, r.hierarchical},
		{region.StrategyPhonetic, r.phonetic},
		{region.StrategyFuzzy, r.fuzzy},
		{region.StrategyContains, r.contains},
	}
}

// 文档注释：精确匹配
// 背景：主查询（去后缀）命中记 1.0；仅当确实去掉了后缀时，再依次尝试原文与“主查询+其他后缀”的变体，命中记 0.95。
func (r *Resolver) exact(ctx context.Context, q Query) (*candidate, bool, error) {
	hit, err := r.finder.FindExact(ctx, q.Stem)
	if err != nil {
		return nil, true, err
	}
	if hit != nil {
		return &candidate{region: *hit, quality: r.t.ExactScore, score: r.t.ExactScore}, true, nil
	}
	if q.Suffix == "" {
		return nil, true, nil
	}
	variants := []string{q.Folded}
	for _, suf := range Suffixes {
		if suf != q.Suffix {
			variants = append(variants, q.Stem+suf)
		}
	}
	for _, v := range variants {
		hit, err := r.finder.FindExact(ctx, v)
		if err != nil {
			return nil, true, err
		}
		if hit != nil {
			return &candidate{region: *hit, quality: r.t.SuffixScore, score: r.t.SuffixScore}, true, nil
		}
	}
	return nil, true, nil
}

// 文档注释：别名匹配
// 背景：先查静态简称表得到规范名称再精确查库；未命中时查区划记录自带的别名列表。
func (r *Resolver) alias(ctx context.Context, q Query) (*candidate, bool, error) {
	keys := []string{q.Stem}
	if q.Folded != q.Stem {
		keys = append(keys, q.Folded)
	}
	for _, k := range keys {
		canon, ok := Canonical(k)
		if !ok {
			continue
		}
		hit, err := r.finder.FindExact(ctx, canon)
		if err != nil {
			return nil, true, err
		}
		if hit != nil {
			return &candidate{region: *hit, quality: r.t.AliasScore, score: r.t.AliasScore}, true, nil
		}
	}
	for _, k := range keys {
		hit, err := r.finder.FindByAliasContains(ctx, k)
		if err != nil {
			return nil, true, err
		}
		if hit != nil {
			return &candidate{region: *hit, quality: r.t.AliasScore, score: r.t.AliasScore}, true, nil
		}
	}
	return nil, true, nil
}

// 文档注释：层级匹配
// 背景：查询含通名后缀，或可按常用简称切成多段时才尝试；逐段在上一段结果的语境下择优，任一段无候选即整体失败。
// 约束：整段有候选时不再按简称前缀细分，“广西壮族”不会被切成“广西|壮族”。
func (r *Resolver) hierarchical(ctx context.Context, q Query) (*candidate, bool, error) {
	if !HasSuffixChar(q.Folded) && len(SplitHierarchy(q.Folded)) < 2 {
		return nil, false, nil
	}
	parts := splitSuffixes(q.Folded)
	if len(parts) == 0 {
		return nil, false, nil
	}
	var parent *region.Region
	for _, part := range parts {
		next, err := r.resolvePart(ctx, part, parent)
		if err != nil {
			return nil, true, err
		}
		if next == nil {
			return nil, true, nil
		}
		parent = next
	}
	return &candidate{region: *parent, quality: r.t.HierarchyScore, score: r.t.HierarchyScore}, true, nil
}

// resolvePart：整段无候选时按简称前缀细分并依次解析
func (r *Resolver) resolvePart(ctx context.Context, part string, parent *region.Region) (*region.Region, error) {
	cands, err := r.partCandidates(ctx, part)
	if err != nil {
		return nil, err
	}
	if best, _, ok := r.scorer.Best(part, cands, parent); ok {
		return &best, nil
	}
	sub := splitCurated(part)
	if len(sub) < 2 {
		return nil, nil
	}
	for _, p := range sub {
		next, err := r.resolvePart(ctx, p, parent)
		if err != nil || next == nil {
			return nil, err
		}
		parent = next
	}
	return parent, nil
}

func (r *Resolver) partCandidates(ctx context.Context, part string) ([]region.Region, error) {
	var out []region.Region
	seen := map[string]bool{}
	if canon, ok := Canonical(part); ok {
		hit, err := r.finder.FindExact(ctx, canon)
		if err != nil {
			return nil, err
		}
		if hit != nil {
			out = append(out, *hit)
			seen[hit.Code] = true
		}
	}
	rs, err := r.finder.SearchByName(ctx, part, r.t.SearchLimit)
	if err != nil {
		return nil, err
	}
	for _, x := range rs {
		if !seen[x.Code] {
			out = append(out, x)
			seen[x.Code] = true
		}
	}
	return out, nil
}

// 文档注释：拼音匹配
// 背景：以主查询的拼音键查候选；无候选且键足够长时以前半段重试，以覆盖漏写或错写音节的输入。
// 约束：取拼音相似度最高的一组候选，再由打分器择优；最终分 = 相似度 × 权重。
func (r *Resolver) phonetic(ctx context.Context, q Query) (*candidate, bool, error) {
	key := PhoneticKey(q.Stem)
	if key == "" {
		return nil, false, nil
	}
	cands, err := r.finder.FindByPhonetic(ctx, key)
	if err != nil {
		return nil, true, err
	}
	if len(cands) == 0 && len(key) >= r.t.PhoneticRetryMin {
		cands, err = r.finder.FindByPhonetic(ctx, key[:len(key)/2])
		if err != nil {
			return nil, true, err
		}
	}
	var top []region.Region
	bestSim := 0.0
	for _, c := range cands {
		sim := PhoneticSimilarity(key, c.Pinyin)
		switch {
		case sim > bestSim:
			bestSim = sim
			top = []region.Region{c}
		case sim == bestSim && sim > 0:
			top = append(top, c)
		}
	}
	best, _, ok := r.scorer.Best(q.Stem, top, nil)
	if !ok {
		return nil, true, nil
	}
	return &candidate{region: best, quality: bestSim, score: bestSim * r.t.PhoneticWeight}, true, nil
}

// 文档注释：模糊匹配
// 背景：以主查询首字检索候选，按编辑相似度取最佳（候选全名与去后缀名取高者）；同分保持检索顺序。
func (r *Resolver) fuzzy(ctx context.Context, q Query) (*candidate, bool, error) {
	cands, err := r.finder.SearchByName(ctx, firstRune(q.Stem), r.t.SearchLimit)
	if err != nil {
		return nil, true, err
	}
	var best *candidate
	for _, c := range cands {
		sim := nameSimilarity(q.Stem, c.Name)
		if s := nameSimilarity(q.Folded, c.Name); s > sim {
			sim = s
		}
		if best == nil || sim > best.quality {
			best = &candidate{region: c, quality: sim, score: sim * r.t.FuzzyWeight}
		}
	}
	return best, true, nil
}

// 文档注释：包含匹配
// 背景：查找名称完整出现在原查询中的区划；覆盖率 = 名称长度 / 查询长度，最终分 = 覆盖率 × 权重。
func (r *Resolver) contains(ctx context.Context, q Query) (*candidate, bool, error) {
	cands, err := r.finder.FindNameContainedIn(ctx, q.Folded, r.t.ContainsLimit)
	if err != nil {
		return nil, true, err
	}
	best, _, ok := r.scorer.Best(q.Folded, cands, nil)
	if !ok {
		return nil, true, nil
	}
	coverage := float64(runeLen(best.Name)) / float64(runeLen(q.Folded))
	if coverage > 1 {
		coverage = 1
	}
	return &candidate{region: best, quality: coverage, score: coverage * r.t.ContainsWeight}, true, nil
}
