package locate

import (
	"errors"
	"math"

	"region-api/internal/region"
)

var (
	ErrIndexNotReady      = errors.New("locate: region index not ready")
	ErrInvalidCoordinates = errors.New("locate: invalid coordinates")
	ErrInvalidLevel       = errors.New("locate: invalid level")
)

// NearestFinder：按坐标取最近区划（通常为 *index.Index）
type NearestFinder interface {
	Nearest(lon, lat float64, level region.Level) (region.Region, float64, bool)
}

// Nearby：反查结果，距离为球面千米
type Nearby struct {
	Region     region.Region `json:"region"`
	DistanceKm float64       `json:"distance_km"`
}

// 文档注释：坐标反查最近区划
// 约束：坐标须为合法经纬度；level 为 0 表示不限层级；f 为空（索引尚未构建）时返回 ErrIndexNotReady。
func Nearest(f NearestFinder, lon, lat float64, level region.Level) (*Nearby, error) {
	if math.IsNaN(lon) || math.IsNaN(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return nil, ErrInvalidCoordinates
	}
	if level != 0 && !level.Valid() {
		return nil, ErrInvalidLevel
	}
	if f == nil {
		return nil, ErrIndexNotReady
	}
	r, km, ok := f.Nearest(lon, lat, level)
	if !ok {
		return nil, ErrNotFound
	}
	return &Nearby{Region: r, DistanceKm: math.Round(km*1000) / 1000}, nil
}
