package amap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/geocode/geo", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{"key": q.Get("key"), "address": q.Get("address"), "city": q.Get("city")}
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"status":"1","info":"OK","infocode":"10000","count":"1","geocodes":[
			{"formatted_address":"广东省广州市天河区","province":"广东省","city":"广州市","district":"天河区",
			 "adcode":"440106","location":"113.361200,23.124680","level":"区县"}]}`))
	}))
	defer srv.Close()

	c := &Client{Key: "k", BaseURL: srv.URL, HTTP: srv.Client()}
	g, err := c.Geocode(context.Background(), "天河区", "广州市")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"key": "k", "address": "天河区", "city": "广州市"}, gotQuery)
	assert.Equal(t, "440106", string(g.Adcode))
	lon, lat, err := g.Coordinates()
	require.NoError(t, err)
	assert.InDelta(t, 113.3612, lon, 1e-6)
	assert.InDelta(t, 23.12468, lat, 1e-6)
}

func TestGeocodeEmptyArraysAndNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") == "无" {
			_, _ = w.Write([]byte(`{"status":"1","info":"OK","infocode":"10000","count":"0","geocodes":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"1","count":"1","geocodes":[{"province":"北京市","city":[],"district":[],"location":"116.4,39.9"}]}`))
	}))
	defer srv.Close()
	c := &Client{Key: "k", BaseURL: srv.URL}

	g, err := c.Geocode(context.Background(), "北京", "")
	require.NoError(t, err)
	assert.Equal(t, "", string(g.City))

	_, err = c.Geocode(context.Background(), "无", "")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestGeocodeErrors(t *testing.T) {
	_, err := New("", nil).Geocode(context.Background(), "北京", "")
	assert.ErrorIs(t, err, ErrMissingKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","info":"INVALID_USER_KEY","infocode":"10001"}`))
	}))
	defer srv.Close()
	_, err = (&Client{Key: "bad", BaseURL: srv.URL}).Geocode(context.Background(), "北京", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_USER_KEY")

	_, _, err = Geocode{Location: "nonsense"}.Coordinates()
	assert.Error(t, err)
}
