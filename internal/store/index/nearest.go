package index

import (
	"math"

	"region-api/internal/region"
)

// MaxNearestKm：最近邻的最大半径，超出视为未命中（海上或境外坐标）
const MaxNearestKm = 300.0

// 文档注释：经纬二维 KD-Tree
// 背景：坐标补全后的区划可按点反查最近的同级区划；树随索引快照一次构建，查询期只读。
// 约束：按经度/纬度交替分割，中位数原地选择；仅支持最近一个点查询，距离为球面千米。
type kdNode struct {
	i  int // 在 Index.regions 中的下标
	ax int // 0:lon 1:lat
	l  *kdNode
	r  *kdNode
}

type point struct {
	i        int
	lon, lat float64
}

// buildTrees：level=0 的树包含全部带坐标区划，其余按层级分树
func (ix *Index) buildTrees() {
	byLevel := make(map[region.Level][]point)
	for i, r := range ix.regions {
		if !r.HasCoordinates() {
			continue
		}
		p := point{i: i, lon: *r.Longitude, lat: *r.Latitude}
		byLevel[0] = append(byLevel[0], p)
		byLevel[r.Level] = append(byLevel[r.Level], p)
	}
	ix.trees = make(map[region.Level]*kdNode, len(byLevel))
	for lv, ps := range byLevel {
		ix.trees[lv] = buildKD(ps, 0)
	}
}

func buildKD(ps []point, depth int) *kdNode {
	if len(ps) == 0 {
		return nil
	}
	ax := depth % 2
	mid := len(ps) / 2
	selectNth(ps, mid, ax)
	n := &kdNode{i: ps[mid].i, ax: ax}
	n.l = buildKD(ps[:mid], depth+1)
	n.r = buildKD(ps[mid+1:], depth+1)
	return n
}

func selectNth(a []point, n, ax int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi, (lo+hi)/2, ax)
		if p == n {
			return
		}
		if n < p {
			hi = p - 1
		} else {
			lo = p + 1
		}
	}
}

func partition(a []point, lo, hi, pivot, ax int) int {
	pv := a[pivot]
	a[pivot], a[hi] = a[hi], a[pivot]
	i := lo
	for j := lo; j < hi; j++ {
		if axis(a[j], ax) < axis(pv, ax) {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}

func axis(p point, ax int) float64 {
	if ax == 0 {
		return p.lon
	}
	return p.lat
}

// 文档注释：按坐标查找最近的区划
// 约束：level 为 0 时不限层级；无带坐标区划或最近距离超过 MaxNearestKm 时 ok=false。
func (ix *Index) Nearest(lon, lat float64, level region.Level) (r region.Region, km float64, ok bool) {
	root := ix.trees[level]
	if root == nil {
		return region.Region{}, 0, false
	}
	best, bestD := -1, math.MaxFloat64
	var dfs func(n *kdNode)
	dfs = func(n *kdNode) {
		if n == nil {
			return
		}
		c := ix.regions[n.i]
		d := haversine(lat, lon, *c.Latitude, *c.Longitude)
		if best < 0 || d < bestD || (d == bestD && c.Code < ix.regions[best].Code) {
			best, bestD = n.i, d
		}
		key, q := lon, *c.Longitude
		if n.ax == 1 {
			key, q = lat, *c.Latitude
		}
		first, second := n.l, n.r
		if key > q {
			first, second = n.r, n.l
		}
		dfs(first)
		if planeKm(n.ax, lat, key-q) <= bestD {
			dfs(second)
		}
	}
	dfs(root)
	if best < 0 || bestD > MaxNearestKm {
		return region.Region{}, 0, false
	}
	return ix.at(best), bestD, true
}

// planeKm：查询点到分割线（经线或纬线）的球面距离下界
func planeKm(ax int, lat, delta float64) float64 {
	const R = 6371.0
	rad := math.Abs(delta) * math.Pi / 180
	if ax == 1 {
		return R * rad
	}
	if rad >= math.Pi/2 {
		return 0
	}
	return R * math.Asin(math.Sin(rad)*math.Cos(lat*math.Pi/180))
}

// 球面距离（Haversine），返回千米
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
