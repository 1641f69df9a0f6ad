package resolver

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	unidecode "github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"
)

// minContainKey：拼音包含判定要求被包含一方至少约两个音节，且不短于包含方的一半
const minContainKey = 4

// 文档注释：拼音键
// 背景：汉字转写为拉丁字母后只保留字母并转小写；拉丁输入原样归一，“Guang Zhou”与“广州”得到同一键 guangzhou。
func PhoneticKey(s string) string {
	t := unidecode.Unidecode(s)
	var b strings.Builder
	for _, r := range t {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// 文档注释：拼音相似度
// 约束：相等为 1.0；任一方包含另一方为 0.8；否则为基于最长公共子序列的通用比率 2·LCS/(|a|+|b|)。
// 过短的片段（如单音节 hu）或只占长串一小部分的片段不按包含计分，避免整句地址与省名互相“包含”。
func PhoneticSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) >= minContainKey && 2*len(short) >= len(long) && strings.Contains(long, short) {
		return 0.8
	}
	return ratio(a, b)
}

// ratio：插入/删除代价 1、替换代价 2 的编辑距离即 |a|+|b|-2·LCS
func ratio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	d := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 1 - float64(d)/float64(total)
}

// 文档注释：编辑相似度
// 约束：按字符（rune）计算 1 − 编辑距离/较长串长度，比较前转小写。
func EditSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	la, lb := runeLen(a), runeLen(b)
	m := la
	if lb > m {
		m = lb
	}
	if m == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(m)
}

// nameSimilarity：查询与候选名称（含去后缀形式）的最佳编辑相似度
func nameSimilarity(query, name string) float64 {
	best := EditSimilarity(query, name)
	if s := EditSimilarity(query, StripSuffix(name)); s > best {
		best = s
	}
	return best
}
