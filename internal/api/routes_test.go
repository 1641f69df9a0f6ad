package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"region-api/internal/amap"
	"region-api/internal/cache"
	"region-api/internal/locate"
	"region-api/internal/logger"
	"region-api/internal/region"
	"region-api/internal/region/regiontest"
	"region-api/internal/resolver"
	"region-api/internal/store/index"
)

type stubGeocoder struct{}

func (stubGeocoder) Geocode(context.Context, string, string) (*amap.Geocode, error) {
	return nil, amap.ErrNoResult
}

// unavailable：区划库整体不可用
type unavailable struct{}

func (unavailable) Lookup(context.Context, string) (resolver.Resolution, error) {
	return resolver.Resolution{}, resolver.ErrStoreUnavailable
}

func newServer(t *testing.T, reload func(context.Context) (int, error)) (*httptest.Server, *cache.Manager) {
	t.Helper()
	mgr := cache.NewManager(cache.DefaultConfig(), nil, cache.WithLogger(logger.Discard()))
	ix := index.New(regiontest.Regions())
	r := resolver.New(ix, resolver.WithCache(mgr), resolver.WithLogger(logger.Discard()))
	nearest := func(_ context.Context, lon, lat float64, level region.Level) (*locate.Nearby, error) {
		return locate.Nearest(ix, lon, lat, level)
	}
	mux := BuildRoutes(Deps{
		Resolver:   r,
		Locator:    locate.New(r, stubGeocoder{}, nil),
		Cache:      mgr,
		Reload:     reload,
		Nearest:    nearest,
		AdminToken: "secret",
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mgr
}

func get(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestResolveRoute(t *testing.T) {
	srv, _ := newServer(t, nil)

	var res resolver.Resolution
	code := get(t, srv, "/resolve?q="+url.QueryEscape("北京"), &res)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, res.Match)
	assert.Equal(t, "110000000000", res.Match.Region.Code)
	assert.Equal(t, region.StrategyAlias, res.Match.Strategy)
	assert.Equal(t, cache.SourceNone, res.Source)

	code = get(t, srv, "/resolve?q="+url.QueryEscape("北京"), &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, cache.SourceFast, res.Source)
	assert.Equal(t, int64(1), res.HitCount)

	var raw map[string]any
	code = get(t, srv, "/resolve?q="+url.QueryEscape("湖"), &raw)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, raw, "match")
	assert.Nil(t, raw["match"])

	code = get(t, srv, "/resolve?q=", &raw)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestResolveRouteStoreUnavailable(t *testing.T) {
	srv := httptest.NewServer(BuildRoutes(Deps{Resolver: unavailable{}}))
	defer srv.Close()
	code := get(t, srv, "/resolve?q=x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code = get(t, srv, "/locate?q=x", nil)
	assert.Equal(t, http.StatusNotFound, code, "locate not configured")
}

func TestResolveBatchRoute(t *testing.T) {
	srv, _ := newServer(t, nil)
	body := `{"names":["北京","湖","","广东广州"]}`
	resp, err := http.Post(srv.URL+"/resolve/batch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Results []struct {
			Query string              `json:"query"`
			Match *region.MatchResult `json:"match"`
			Error string              `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 4)
	assert.Equal(t, "110000000000", out.Results[0].Match.Region.Code)
	assert.Nil(t, out.Results[1].Match)
	assert.Equal(t, resolver.ErrEmptyQuery.Error(), out.Results[2].Error)
	assert.Equal(t, "440100000000", out.Results[3].Match.Region.Code)

	resp2, err := http.Post(srv.URL+"/resolve/batch", "application/json", strings.NewReader(`{"names":[]}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestLocateRoute(t *testing.T) {
	srv, _ := newServer(t, nil)
	var res locate.Result
	code := get(t, srv, "/locate?q="+url.QueryEscape("朝阳区"), &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, locate.SourceRegion, res.Source)
	assert.InDelta(t, 116.443, res.Longitude, 1e-9)

	code = get(t, srv, "/locate?q="+url.QueryEscape("天河区"), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminRoutes(t *testing.T) {
	reloaded := 0
	srv, mgr := newServer(t, func(context.Context) (int, error) {
		reloaded++
		return 20, nil
	})
	get(t, srv, "/resolve?q="+url.QueryEscape("北京"), nil)
	var st cache.Stats
	get(t, srv, "/cache/stats", &st)
	assert.Equal(t, 1, st.FastEntries)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/reload-index", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req.Header.Set("x-admin-token", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20, body["regions"])
	assert.Equal(t, 1, reloaded)
	assert.Equal(t, 0, mgr.Stats(context.Background()).FastEntries, "reload clears cached results")
}

func TestReloadFailure(t *testing.T) {
	srv, _ := newServer(t, func(context.Context) (int, error) { return 0, errors.New("db gone") })
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/reload-index", nil)
	req.Header.Set("x-admin-token", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestNearestRoute(t *testing.T) {
	srv, _ := newServer(t, nil)

	var res locate.Nearby
	code := get(t, srv, "/nearest?lon=116.44&lat=39.92", &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "110105000000", res.Region.Code)

	code = get(t, srv, "/nearest?lon=116.44&lat=39.92&level=1", &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "110000000000", res.Region.Code)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/nearest?lon=abc&lat=1", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/nearest?lon=1&lat=95", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/nearest?lon=1&lat=1&level=7", nil))
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nearest?lon=0&lat=0", nil))
}
