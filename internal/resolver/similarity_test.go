package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"region-api/internal/region"
	"region-api/internal/region/regiontest"
)

func TestPhoneticKey(t *testing.T) {
	assert.Equal(t, "guangzhou", PhoneticKey("广州"))
	assert.Equal(t, "guangzhou", PhoneticKey("Guang Zhou"))
	assert.Equal(t, "beijing", PhoneticKey("北京"))
	assert.Equal(t, "", PhoneticKey("123 -"))
}

func TestPhoneticSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, PhoneticSimilarity("guangzhou", "guangzhou"))
	assert.Equal(t, 0.8, PhoneticSimilarity("guangzhou", "guangzhoutianhe"))
	assert.Equal(t, 0.8, PhoneticSimilarity("chaoyangqu", "chaoyang"))
	// 单音节片段与整句地址不按包含计分
	assert.Less(t, PhoneticSimilarity("hu", "hubei"), 0.8)
	assert.Less(t, PhoneticSimilarity("guangdongshengguangzhoushitianhe", "guangdong"), 0.8)
	assert.InDelta(t, 16.0/17.0, PhoneticSimilarity("guanzhou", "guangzhou"), 1e-9)
	assert.Equal(t, 0.0, PhoneticSimilarity("", "beijing"))
}

func TestEditSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, EditSimilarity("ABC", "abc"))
	assert.InDelta(t, 2.0/3.0, EditSimilarity("abc", "abd"), 1e-9)
	assert.InDelta(t, 0.75, EditSimilarity("乌鲁木奇", "乌鲁木齐"), 1e-9)
	assert.Equal(t, 1.0, EditSimilarity("", ""))
	assert.InDelta(t, 0.75, nameSimilarity("乌鲁木奇", "乌鲁木齐市"), 1e-9)
}

func TestScorerPrefersParentContext(t *testing.T) {
	s := NewScorer(DefaultTuning())
	bj := regiontest.ByCode("110105000000")
	cc := regiontest.ByCode("220104000000")
	parent := regiontest.ByCode("220100000000")

	best, _, ok := s.Best("朝阳", []region.Region{bj, cc}, &parent)
	assert.True(t, ok)
	assert.Equal(t, "220104000000", best.Code)

	best, _, _ = s.Best("朝阳", []region.Region{bj, cc}, nil)
	assert.Equal(t, "110105000000", best.Code, "ties keep store order")

	_, _, ok = s.Best("朝阳", nil, nil)
	assert.False(t, ok)
}

func TestScorerComposite(t *testing.T) {
	s := NewScorer(DefaultTuning())
	gd := regiontest.ByCode("440000000000")
	// 名称相似 1.0×0.6 + 省级 0.3 + 长度接近 (1−1/10)×0.1
	assert.InDelta(t, 0.6+0.3+0.09, s.Score("广东", gd, nil), 1e-9)
	assert.Equal(t, 0.0, lengthProximity("一二三四五六七八九十十一", "省"))
}
