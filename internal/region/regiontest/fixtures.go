// 包 regiontest：测试用区划样本，覆盖同名区县、直辖市、无拼音记录与乡镇层级
package regiontest

import (
	"fmt"

	"region-api/internal/region"
)

func f(v float64) *float64 { return &v }

// Regions：返回一份新的样本切片，调用方可自由修改
func Regions() []region.Region {
	return []region.Region{
		{Code: "110000000000", Name: "北京市", Level: 1, Pinyin: "beijing", Aliases: []string{"京"}, Longitude: f(116.4074), Latitude: f(39.9042)},
		{Code: "110100000000", Name: "市辖区", ParentCode: "110000000000", Level: 2, Pinyin: "shixiaqu"},
		{Code: "110105000000", Name: "朝阳区", ParentCode: "110100000000", Level: 3, Pinyin: "chaoyang", Aliases: []string{"朝阳"}, Longitude: f(116.4430), Latitude: f(39.9215)},
		{Code: "110108000000", Name: "海淀区", ParentCode: "110100000000", Level: 3, Pinyin: "haidian", Aliases: []string{"海淀"}},
		{Code: "220000000000", Name: "吉林省", Level: 1, Pinyin: "jilin", Aliases: []string{"吉"}},
		{Code: "220100000000", Name: "长春市", ParentCode: "220000000000", Level: 2, Pinyin: "changchun"},
		{Code: "220104000000", Name: "朝阳区", ParentCode: "220100000000", Level: 3, Pinyin: "chaoyang"},
		{Code: "330000000000", Name: "浙江省", Level: 1, Pinyin: "zhejiang", Aliases: []string{"浙"}},
		{Code: "330100000000", Name: "杭州市", ParentCode: "330000000000", Level: 2, Pinyin: "hangzhou", Aliases: []string{"杭州"}},
		{Code: "330112000000", Name: "临安区", ParentCode: "330100000000", Level: 3, Pinyin: "linan"},
		{Code: "330112104000", Name: "河桥镇", ParentCode: "330112000000", Level: 4, Pinyin: "heqiao", Longitude: f(119.3600), Latitude: f(30.1500)},
		{Code: "420000000000", Name: "湖北省", Level: 1, Pinyin: "hubei", Aliases: []string{"鄂"}},
		{Code: "430000000000", Name: "湖南省", Level: 1, Pinyin: "hunan", Aliases: []string{"湘"}},
		{Code: "440000000000", Name: "广东省", Level: 1, Pinyin: "guangdong", Aliases: []string{"粤"}, Longitude: f(113.2665), Latitude: f(23.1322)},
		{Code: "440100000000", Name: "广州市", ParentCode: "440000000000", Level: 2, Pinyin: "guangzhou", Aliases: []string{"穗"}, Longitude: f(113.2644), Latitude: f(23.1291)},
		{Code: "440106000000", Name: "天河区", ParentCode: "440100000000", Level: 3, Pinyin: "tianhe"},
		{Code: "440300000000", Name: "深圳市", ParentCode: "440000000000", Level: 2, Pinyin: "shenzhen", Aliases: []string{"鹏城"}},
		{Code: "450000000000", Name: "广西壮族自治区", Level: 1, Pinyin: "guangxi", Aliases: []string{"桂"}},
		{Code: "650000000000", Name: "新疆维吾尔自治区", Level: 1, Pinyin: "xinjiang", Aliases: []string{"新"}},
		{Code: "650100000000", Name: "乌鲁木齐市", ParentCode: "650000000000", Level: 2},
	}
}

// ByCode：按编码取样本，未找到时 panic，仅供测试
func ByCode(code string) region.Region {
	for _, r := range Regions() {
		if r.Code == code {
			return r
		}
	}
	panic("regiontest: unknown code " + code)
}

// TianheTowns：n 个挂在天河区下的乡镇，拼音均以 tianhe 开头（tianhexianga, tianhexiangb …），
// 用于构造拼音包含命中多于候选上限的场景
func TianheTowns(n int) []region.Region {
	out := make([]region.Region, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, region.Region{
			Code:       fmt.Sprintf("440106%03d000", 100+i),
			Name:       fmt.Sprintf("天河第%d镇", i+1),
			ParentCode: "440106000000",
			Level:      region.LevelTown,
			Pinyin:     "tianhexiang" + string(rune('a'+i)),
		})
	}
	return out
}
