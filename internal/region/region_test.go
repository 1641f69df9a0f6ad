package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	ok := Region{Code: "440100000000", Name: "广州市", ParentCode: "440000000000", Level: LevelPrefecture, Aliases: []string{"穗", "羊城"}}
	require.NoError(t, ok.Validate())

	cases := map[string]struct {
		r    Region
		want error
	}{
		"empty name":     {Region{Code: "1", Level: LevelProvince}, ErrInvalidRegion},
		"level zero":     {Region{Code: "1", Name: "x"}, ErrInvalidRegion},
		"level six":      {Region{Code: "1", Name: "x", ParentCode: "0", Level: 6}, ErrInvalidRegion},
		"top has parent": {Region{Code: "1", Name: "x", ParentCode: "0", Level: LevelProvince}, ErrHierarchy},
		"orphan":         {Region{Code: "1", Name: "x", Level: LevelCounty}, ErrHierarchy},
		"dup alias":      {Region{Code: "1", Name: "x", Level: LevelProvince, Aliases: []string{"a", "a"}}, ErrInvalidRegion},
	}
	for name, c := range cases {
		assert.ErrorIs(t, c.r.Validate(), c.want, name)
	}
}

func TestCheckHierarchy(t *testing.T) {
	batch := []Region{
		{Code: "440106000000", Name: "天河区", ParentCode: "440100000000", Level: LevelCounty},
		{Code: "440100000000", Name: "广州市", ParentCode: "440000000000", Level: LevelPrefecture},
	}
	inDB := func(code string) (Level, bool) {
		if code == "440000000000" {
			return LevelProvince, true
		}
		return 0, false
	}
	require.NoError(t, CheckHierarchy(batch, inDB))
	assert.ErrorIs(t, CheckHierarchy(batch, nil), ErrHierarchy, "province neither in batch nor in db")

	skip := []Region{{Code: "440106001000", Name: "石牌街道", ParentCode: "440000000000", Level: LevelTown}}
	assert.ErrorIs(t, CheckHierarchy(skip, inDB), ErrHierarchy, "level must be parent + 1")
}

func TestNewMatchClampsAndDerivesConfidence(t *testing.T) {
	r := Region{Code: "1", Name: "x", Level: LevelProvince}
	assert.Equal(t, 1.0, NewMatch(r, 1.2, StrategyExact).Score)
	assert.Equal(t, 0.0, NewMatch(r, -0.1, StrategyContains).Score)

	assert.Equal(t, ConfidenceHigh, NewMatch(r, 0.9, StrategyAlias).Confidence)
	assert.Equal(t, ConfidenceMedium, NewMatch(r, 0.85, StrategyHierarchical).Confidence)
	assert.Equal(t, ConfidenceMedium, NewMatch(r, 0.7, StrategyFuzzy).Confidence)
	assert.Equal(t, ConfidenceLow, NewMatch(r, 0.36, StrategyContains).Confidence)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "prefecture", LevelPrefecture.String())
	assert.Equal(t, "level(9)", Level(9).String())
	assert.True(t, r0().HasAlias("京"))
	assert.False(t, r0().HasAlias("北"))
	assert.False(t, r0().HasCoordinates())
}

func r0() Region { return Region{Code: "110000000000", Name: "北京市", Level: LevelProvince, Aliases: []string{"京"}} }
