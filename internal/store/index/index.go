// 包 index：区划内存索引（名称、拼音、别名），由区划库一次性构建，供热点查询路径规避数据库往返
package index

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"region-api/internal/logger"
	"region-api/internal/region"
)

// PhoneticLimit 与 SQL 实现保持一致
const PhoneticLimit = 20

// Source：可全量读取区划的来源（通常为 *store.Store）
type Source interface {
	AllRegions(ctx context.Context) ([]region.Region, error)
}

// 文档注释：只读内存索引
// 背景：区划表只在批量导入/补全时变化，查询期以快照方式常驻内存；重建后整体替换。唯一的增量是坐标回写的覆盖层。
// 约束：各查询的排序规则与 SQL 实现一致，保证切换数据源不改变解析结果；返回的记录均已叠加覆盖层。
type Index struct {
	regions  []region.Region
	byName   map[string][]int
	byPinyin map[string][]int
	byAlias  map[string][]int
	children map[string][]int
	names    []string
	pinyins  []string
	trees    map[region.Level]*kdNode
	builtAt  time.Time

	mu     sync.RWMutex
	coords map[int][2]float64 // 下标 -> {lon, lat}
}

// BuildFromStore：全量拉取并构建索引
func BuildFromStore(ctx context.Context, src Source) (*Index, error) {
	logger.L().Debug("region_index_build_begin")
	rs, err := src.AllRegions(ctx)
	if err != nil {
		return nil, err
	}
	ix := New(rs)
	logger.L().Debug("region_index_build_done", "regions", len(ix.regions), "names", len(ix.names), "pinyins", len(ix.pinyins))
	return ix, nil
}

// New：基于给定记录构建索引，记录按编码排序后存放
func New(rs []region.Region) *Index {
	ix := &Index{
		regions:  append([]region.Region(nil), rs...),
		byName:   make(map[string][]int),
		byPinyin: make(map[string][]int),
		byAlias:  make(map[string][]int),
		children: make(map[string][]int),
		builtAt:  time.Now(),
	}
	sort.Slice(ix.regions, func(i, j int) bool { return ix.regions[i].Code < ix.regions[j].Code })
	for i, r := range ix.regions {
		if _, ok := ix.byName[r.Name]; !ok {
			ix.names = append(ix.names, r.Name)
		}
		ix.byName[r.Name] = append(ix.byName[r.Name], i)
		if r.Pinyin != "" {
			if _, ok := ix.byPinyin[r.Pinyin]; !ok {
				ix.pinyins = append(ix.pinyins, r.Pinyin)
			}
			ix.byPinyin[r.Pinyin] = append(ix.byPinyin[r.Pinyin], i)
		}
		for _, a := range r.Aliases {
			ix.byAlias[a] = append(ix.byAlias[a], i)
		}
		if r.ParentCode != "" {
			ix.children[r.ParentCode] = append(ix.children[r.ParentCode], i)
		}
	}
	ix.buildTrees()
	return ix
}

func (ix *Index) Len() int { return len(ix.regions) }

func (ix *Index) BuiltAt() time.Time { return ix.builtAt }

// 文档注释：修补单条区划的坐标
// 背景：外部地理编码回写区划库后，当前快照不必重建即可返回新坐标。
// 约束：KD-Tree 不随之更新，最近邻反查要到下次重建才包含该点；编码不存在时返回 false。
func (ix *Index) UpdateCoordinates(code string, lon, lat float64) bool {
	i := sort.Search(len(ix.regions), func(i int) bool { return ix.regions[i].Code >= code })
	if i == len(ix.regions) || ix.regions[i].Code != code {
		return false
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.coords == nil {
		ix.coords = make(map[int][2]float64)
	}
	ix.coords[i] = [2]float64{lon, lat}
	return true
}

// at：第 i 条记录的副本，叠加坐标覆盖层
func (ix *Index) at(i int) region.Region {
	r := ix.regions[i]
	ix.mu.RLock()
	c, ok := ix.coords[i]
	ix.mu.RUnlock()
	if ok {
		r.Longitude, r.Latitude = &c[0], &c[1]
	}
	return r
}

func (ix *Index) pick(ids []int) []region.Region {
	out := make([]region.Region, 0, len(ids))
	for _, i := range ids {
		out = append(out, ix.at(i))
	}
	return out
}

func nameLen(r region.Region) int { return utf8.RuneCountInString(r.Name) }

func (ix *Index) FindExact(_ context.Context, name string) (*region.Region, error) {
	ids := ix.byName[name]
	if len(ids) == 0 {
		return nil, nil
	}
	best := ids[0]
	for _, i := range ids[1:] {
		if ix.regions[i].Level < ix.regions[best].Level {
			best = i
		}
	}
	r := ix.at(best)
	return &r, nil
}

func (ix *Index) FindByPhonetic(_ context.Context, key string) ([]region.Region, error) {
	if key == "" {
		return nil, nil
	}
	var ids []int
	for _, p := range ix.pinyins {
		if p == key || strings.Contains(p, key) || strings.Contains(key, p) {
			ids = append(ids, ix.byPinyin[p]...)
		}
	}
	out := ix.pick(ids)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ea, eb := a.Pinyin == key, b.Pinyin == key; ea != eb {
			return ea
		}
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		if la, lb := nameLen(a), nameLen(b); la != lb {
			return la < lb
		}
		return a.Code < b.Code
	})
	return capped(out, PhoneticLimit), nil
}

func (ix *Index) FindByAliasContains(_ context.Context, name string) (*region.Region, error) {
	ids := ix.byAlias[name]
	if len(ids) == 0 {
		return nil, nil
	}
	best := ids[0]
	for _, i := range ids[1:] {
		if ix.regions[i].Level > ix.regions[best].Level {
			best = i
		}
	}
	r := ix.at(best)
	return &r, nil
}

func (ix *Index) FindNameContainedIn(_ context.Context, query string, limit int) ([]region.Region, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}
	var ids []int
	for _, n := range ix.names {
		if n != "" && len(n) <= len(query) && strings.Contains(query, n) {
			ids = append(ids, ix.byName[n]...)
		}
	}
	out := ix.pick(ids)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		if la, lb := nameLen(a), nameLen(b); la != lb {
			return la > lb
		}
		return a.Code < b.Code
	})
	return capped(out, limit), nil
}

func (ix *Index) SearchByName(_ context.Context, fragment string, limit int) ([]region.Region, error) {
	if fragment == "" || limit <= 0 {
		return nil, nil
	}
	var ids []int
	for _, n := range ix.names {
		if strings.Contains(n, fragment) {
			ids = append(ids, ix.byName[n]...)
		}
	}
	out := ix.pick(ids)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if la, lb := nameLen(a), nameLen(b); la != lb {
			return la < lb
		}
		return a.Code < b.Code
	})
	return capped(out, limit), nil
}

// Children：按父级编码枚举下级区划，编码升序
func (ix *Index) Children(_ context.Context, parentCode string) ([]region.Region, error) {
	return ix.pick(ix.children[parentCode]), nil
}

func capped(rs []region.Region, n int) []region.Region {
	if len(rs) > n {
		return rs[:n]
	}
	return rs
}
