// 包 amap：高德地理编码 REST 客户端，用于区划库缺少坐标时的外部补全
package amap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"region-api/internal/logger"
	"region-api/internal/metrics"
)

var (
	ErrMissingKey = errors.New("amap: missing key")
	ErrNoResult   = errors.New("amap: no geocode result")
)

// DefaultBaseURL：高德 Web 服务地址
const DefaultBaseURL = "https://restapi.amap.com"

// text：高德在字段为空时返回 [] 而不是空串，这里统一为字符串
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	*t = ""
	return nil
}

// 文档注释：地理编码响应结构
// 背景：对齐 v3/geocode/geo 的返回字段，只解析定位需要的行政区与坐标。
// 约束：status/infocode 用于错误判定；location 为 "经度,纬度" 文本。
type GeoResponse struct {
	Status   string    `json:"status"`
	Info     string    `json:"info"`
	Infocode string    `json:"infocode"`
	Count    string    `json:"count"`
	Geocodes []Geocode `json:"geocodes"`
}

type Geocode struct {
	FormattedAddress text `json:"formatted_address"`
	Province         text `json:"province"`
	City             text `json:"city"`
	District         text `json:"district"`
	Adcode           text `json:"adcode"`
	Location         text `json:"location"`
	Level            text `json:"level"`
}

// Coordinates：解析 location 字段
func (g Geocode) Coordinates() (lon, lat float64, err error) {
	parts := strings.Split(string(g.Location), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("amap: bad location %q", g.Location)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, fmt.Errorf("amap: bad longitude: %w", err)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, fmt.Errorf("amap: bad latitude: %w", err)
	}
	return lon, lat, nil
}

// Client：地理编码客户端；HTTP 为空时使用 5s 超时的默认客户端
type Client struct {
	Key     string
	BaseURL string
	HTTP    *http.Client
}

func New(key string, hc *http.Client) *Client {
	return &Client{Key: key, BaseURL: DefaultBaseURL, HTTP: hc}
}

// 文档注释：地名/地址地理编码
// 参数：address 为待编码文本；city 为可选的城市提示（名称、citycode 或 adcode），缩小同名歧义。
// 返回：首个编码结果；status!="1" 时返回带 info 的错误，结果为空时返回 ErrNoResult。
func (c *Client) Geocode(ctx context.Context, address, city string) (*Geocode, error) {
	if c.Key == "" {
		return nil, ErrMissingKey
	}
	q := url.Values{}
	q.Set("key", c.Key)
	q.Set("address", address)
	if city != "" {
		q.Set("city", city)
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u := strings.TrimRight(base, "/") + "/v3/geocode/geo?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	t0 := time.Now()
	metrics.AMapRequestsTotal.Inc()
	logger.L().Debug("amap_req", "address", address, "city", city)
	resp, err := hc.Do(req)
	if err != nil {
		logger.L().Error("amap_http_error", "err", err)
		metrics.AMapFailTotal.Inc()
		return nil, fmt.Errorf("amap: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.AMapFailTotal.Inc()
		return nil, fmt.Errorf("amap: http status %d", resp.StatusCode)
	}
	var r GeoResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("amap_decode_error", "err", err)
		metrics.AMapFailTotal.Inc()
		return nil, fmt.Errorf("amap: decode: %w", err)
	}
	dur := time.Since(t0).Milliseconds()
	metrics.AMapDurationMs.Observe(float64(dur))
	logger.L().Debug("amap_resp", "address", address, "status", r.Status, "infocode", r.Infocode, "count", r.Count, "duration_ms", dur)
	if r.Status != "1" {
		metrics.AMapFailTotal.Inc()
		return nil, fmt.Errorf("amap: %s (infocode %s)", r.Info, r.Infocode)
	}
	if len(r.Geocodes) == 0 {
		return nil, ErrNoResult
	}
	metrics.AMapSuccessTotal.Inc()
	g := r.Geocodes[0]
	return &g, nil
}
