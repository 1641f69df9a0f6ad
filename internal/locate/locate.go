// 包 locate：地名到坐标的查询层；先走区划解析，缺坐标时回落到高德地理编码
package locate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"region-api/internal/amap"
	"region-api/internal/logger"
	"region-api/internal/metrics"
	"region-api/internal/region"
	"region-api/internal/resolver"
)

var ErrNotFound = errors.New("locate: no coordinates")

// Source：坐标来源
type Source string

const (
	SourceRegion Source = "region"
	SourceAMap   Source = "amap"
)

// Resolver：Forget 在坐标回写后丢弃该地名的缓存结果，下一次解析可读到新坐标
type Resolver interface {
	Resolve(ctx context.Context, name string) (*region.MatchResult, error)
	Forget(ctx context.Context, name string)
}

type Geocoder interface {
	Geocode(ctx context.Context, address, city string) (*amap.Geocode, error)
}

// CoordinateWriter：外部坐标回写区划库；实现方负责让之后的解析看到新坐标（如同时修补内存索引）
type CoordinateWriter interface {
	UpdateCoordinates(ctx context.Context, code string, lon, lat float64) error
}

// Query：地名与可选的城市/省份提示
type Query struct {
	Name     string `json:"name"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
}

type Result struct {
	Longitude float64             `json:"longitude"`
	Latitude  float64             `json:"latitude"`
	Source    Source              `json:"source"`
	Match     *region.MatchResult `json:"match"`
	Adcode    string              `json:"adcode,omitempty"`
	Address   string              `json:"address,omitempty"`
}

type Locator struct {
	r   Resolver
	g   Geocoder
	w   CoordinateWriter
	log *slog.Logger
}

// New：g 与 w 可为空；g 为空时仅返回区划库自带坐标
func New(r Resolver, g Geocoder, w CoordinateWriter) *Locator {
	return &Locator{r: r, g: g, w: w, log: logger.Component("locate")}
}

// 文档注释：坐标查询
// 背景：解析命中且区划带坐标时直接返回；否则在配置了高德密钥时以“省+市+地名”编码，城市提示优先取 City，其次 Province。
// 约束：区划库不可用时仍尝试外部编码；空查询直接返回 resolver.ErrEmptyQuery。
func (l *Locator) Locate(ctx context.Context, q Query) (*Result, error) {
	m, err := l.r.Resolve(ctx, q.Name)
	switch {
	case errors.Is(err, resolver.ErrEmptyQuery):
		return nil, err
	case err != nil && l.g == nil:
		return nil, err
	case err != nil:
		l.log.Warn("locate_resolve_fail", "q", q.Name, "err", err)
	}
	if m != nil && m.Region.HasCoordinates() {
		metrics.LocateTotal.WithLabelValues(string(SourceRegion)).Inc()
		return &Result{Longitude: *m.Region.Longitude, Latitude: *m.Region.Latitude, Source: SourceRegion, Match: m}, nil
	}
	if l.g == nil {
		metrics.LocateTotal.WithLabelValues("none").Inc()
		return nil, ErrNotFound
	}
	city := q.City
	if city == "" {
		city = q.Province
	}
	g, err := l.g.Geocode(ctx, address(q), city)
	if errors.Is(err, amap.ErrNoResult) {
		metrics.LocateTotal.WithLabelValues("none").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	lon, lat, err := g.Coordinates()
	if err != nil {
		return nil, err
	}
	metrics.LocateTotal.WithLabelValues(string(SourceAMap)).Inc()
	res := &Result{Longitude: lon, Latitude: lat, Source: SourceAMap, Match: m, Adcode: string(g.Adcode), Address: string(g.FormattedAddress)}
	l.writeBack(ctx, q.Name, m, res)
	return res, nil
}

// writeBack：仅当高德 adcode 与区划编码前 6 位一致（县级及以上）时回写坐标，成功后丢弃 name 的缓存结果
func (l *Locator) writeBack(ctx context.Context, name string, m *region.MatchResult, res *Result) {
	if l.w == nil || m == nil || m.Region.Level > region.LevelCounty || len(m.Region.Code) < 6 {
		return
	}
	if res.Adcode != m.Region.Code[:6] {
		l.log.Debug("locate_writeback_skip", "code", m.Region.Code, "adcode", res.Adcode)
		return
	}
	if err := l.w.UpdateCoordinates(ctx, m.Region.Code, res.Longitude, res.Latitude); err != nil {
		l.log.Warn("locate_writeback_fail", "code", m.Region.Code, "err", err)
		return
	}
	l.r.Forget(ctx, name)
	l.log.Info("locate_writeback_ok", "code", m.Region.Code, "lon", res.Longitude, "lat", res.Latitude)
}

// address：拼接提示，已包含在地名中的提示不重复
func address(q Query) string {
	var b strings.Builder
	for _, h := range []string{q.Province, q.City} {
		if h != "" && !strings.Contains(q.Name, h) {
			b.WriteString(h)
		}
	}
	b.WriteString(q.Name)
	return b.String()
}
