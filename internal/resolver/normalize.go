package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Suffixes：行政区划通名后缀，按长度降序排列以保证最长匹配
var Suffixes = []string{
	"特别行政区",
	"自治区", "自治州", "自治县",
	"地区", "街道",
	"省", "市", "县", "区", "镇", "乡", "村", "旗", "盟",
}

// splitTokens：层级拆分使用的分隔后缀；“旗”“盟”常出现在专名内部，不参与拆分
var splitTokens = []string{
	"特别行政区",
	"自治区", "自治州", "自治县",
	"地区", "街道",
	"省", "市", "县", "区", "镇", "乡", "村",
}

// Query：归一化后的查询
type Query struct {
	Raw    string
	Folded string // 全角折叠、去空白后的完整文本
	Stem   string // 去掉末尾通名后缀的主查询
	Suffix string // 被去掉的后缀，未去掉时为空
}

// 文档注释：查询归一化
// 背景：全角转半角并去除全部空白；若末尾带通名后缀且去掉后仍非空，则以去后缀文本为主查询，原文作为回退变体。
func Normalize(raw string) Query {
	folded := width.Fold.String(raw)
	folded = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
	q := Query{Raw: raw, Folded: folded, Stem: folded}
	for _, suf := range Suffixes {
		if strings.HasSuffix(folded, suf) && len(folded) > len(suf) {
			q.Stem = strings.TrimSuffix(folded, suf)
			q.Suffix = suf
			break
		}
	}
	return q
}

// Empty：空串或纯空白
func (q Query) Empty() bool { return q.Folded == "" }

// CacheText：缓存键原文，保留后缀以区分“朝阳区/朝阳县”
func (q Query) CacheText() string { return strings.ToLower(q.Folded) }

// StripSuffix：去掉名称末尾的通名后缀
func StripSuffix(name string) string {
	for _, suf := range Suffixes {
		if strings.HasSuffix(name, suf) && len(name) > len(suf) {
			return strings.TrimSuffix(name, suf)
		}
	}
	return name
}

// HasSuffixChar：文本中是否出现任一通名后缀
func HasSuffixChar(s string) bool {
	for _, t := range splitTokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// 文档注释：层级拆分
// 背景：先按通名后缀切分（“广东省广州市” → 广东 | 广州），再对每段按常用简称前缀继续切分（“广东广州” → 广东 | 广州）。
// 约束：空段丢弃；单字简称不参与前缀切分，避免“粤”“京”等字误切专名。
func SplitHierarchy(s string) []string {
	var out []string
	for _, p := range splitSuffixes(s) {
		out = append(out, splitCurated(p)...)
	}
	return out
}

// splitSuffixes：仅按通名后缀切分
func splitSuffixes(s string) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); {
		matched := ""
		for _, t := range splitTokens {
			if strings.HasPrefix(s[i:], t) {
				matched = t
				break
			}
		}
		if matched != "" {
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			i += len(matched)
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		cur.WriteString(s[i : i+size])
		i += size
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func splitCurated(p string) []string {
	for _, k := range curatedPrefixes {
		if strings.HasPrefix(p, k) && len(p) > len(k) {
			return append([]string{k}, splitCurated(strings.TrimPrefix(p, k))...)
		}
	}
	return []string{p}
}

func firstRune(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
