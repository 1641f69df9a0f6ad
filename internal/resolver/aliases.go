package resolver

import (
	"sort"
	"unicode/utf8"
)

// curated：常用简称、旧称与别称到规范名称的静态映射
var curated = map[string]string{
	"北京": "北京市", "天津": "天津市", "上海": "上海市", "重庆": "重庆市",
	"河北": "河北省", "山西": "山西省", "辽宁": "辽宁省", "吉林": "吉林省", "黑龙江": "黑龙江省",
	"江苏": "江苏省", "浙江": "浙江省", "安徽": "安徽省", "福建": "福建省", "江西": "江西省",
	"山东": "山东省", "河南": "河南省", "湖北": "湖北省", "湖南": "湖南省", "广东": "广东省",
	"海南": "海南省", "四川": "四川省", "贵州": "贵州省", "云南": "云南省", "陕西": "陕西省",
	"甘肃": "甘肃省", "青海": "青海省", "台湾": "台湾省",
	"内蒙古": "内蒙古自治区", "广西": "广西壮族自治区", "西藏": "西藏自治区",
	"宁夏": "宁夏回族自治区", "新疆": "新疆维吾尔自治区",
	"香港": "香港特别行政区", "澳门": "澳门特别行政区",

	"京": "北京市", "津": "天津市", "沪": "上海市", "渝": "重庆市", "冀": "河北省", "晋": "山西省",
	"辽": "辽宁省", "黑": "黑龙江省", "苏": "江苏省", "皖": "安徽省", "闽": "福建省", "赣": "江西省",
	"鲁": "山东省", "豫": "河南省", "鄂": "湖北省", "湘": "湖南省", "粤": "广东省", "琼": "海南省",
	"川": "四川省", "蜀": "四川省", "黔": "贵州省", "滇": "云南省", "陇": "甘肃省", "桂": "广西壮族自治区",
	"藏": "西藏自治区", "港": "香港特别行政区", "澳": "澳门特别行政区",

	"广州": "广州市", "深圳": "深圳市", "杭州": "杭州市", "南京": "南京市", "武汉": "武汉市",
	"成都": "成都市", "西安": "西安市", "苏州": "苏州市", "长春": "长春市", "沈阳": "沈阳市",
	"哈尔滨": "哈尔滨市", "大连": "大连市", "青岛": "青岛市", "厦门": "厦门市", "宁波": "宁波市",
	"郑州": "郑州市", "长沙": "长沙市", "昆明": "昆明市", "贵阳": "贵阳市", "南宁": "南宁市",
	"福州": "福州市", "济南": "济南市", "合肥": "合肥市", "南昌": "南昌市", "太原": "太原市",
	"石家庄": "石家庄市", "呼和浩特": "呼和浩特市", "乌鲁木齐": "乌鲁木齐市", "拉萨": "拉萨市",
	"兰州": "兰州市", "西宁": "西宁市", "银川": "银川市", "海口": "海口市", "三亚": "三亚市",

	"帝都": "北京市", "魔都": "上海市", "羊城": "广州市", "鹏城": "深圳市", "蓉城": "成都市",
	"春城": "昆明市", "泉城": "济南市", "江城": "武汉市", "榕城": "福州市",
}

// curatedPrefixes：参与层级前缀切分的多字简称，长度降序
var curatedPrefixes = func() []string {
	var out []string
	for k := range curated {
		if utf8.RuneCountInString(k) > 1 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// Canonical：静态表中的规范名称
func Canonical(short string) (string, bool) {
	v, ok := curated[short]
	return v, ok
}
