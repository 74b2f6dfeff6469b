package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soc_dvfs/board"
	"soc_dvfs/dvfs"
	"soc_dvfs/metrics"
)

type stubStatus struct {
	violations []string
}

func (s stubStatus) Rails() []dvfs.RailSnapshot {
	return []dvfs.RailSnapshot{{Name: "vdd_core", CurrentMV: 1200, Enabled: true}}
}
func (s stubStatus) Domains() []dvfs.DomainInfo { return nil }
func (s stubStatus) Violations() []string      { return s.violations }

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHealthz(t *testing.T) {
	code, body := get(t, newRouter(stubStatus{}, prometheus.NewRegistry()), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get(t, newRouter(stubStatus{violations: []string{"vdd_cpu below floor"}}, prometheus.NewRegistry()), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "vdd_cpu below floor")
}

func TestRailsEndpoint(t *testing.T) {
	code, body := get(t, newRouter(stubStatus{}, prometheus.NewRegistry()), "/v1/rails")
	require.Equal(t, http.StatusOK, code)
	var rails []dvfs.RailSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &rails))
	require.Len(t, rails, 1)
	assert.Equal(t, 1200, rails[0].CurrentMV)

	code, _ = get(t, newRouter(stubStatus{}, prometheus.NewRegistry()), "/v1/nothing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := board.Tegra3()
	e, err := dvfs.New(b, board.SimulatedClocks(b), dvfs.Silicon{
		CPUSpeedo:  12,
		CPUProcess: 3,
		SoCSpeedo:  2,
		CoreMV:     1450,
	}, dvfs.WithMetrics(metrics.New(reg)))
	require.NoError(t, err)
	_, err = e.Initialize()
	require.NoError(t, err)

	code, body := get(t, newRouter(e, reg), "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(body, `dvfs_rail_nominal_millivolts{rail="vdd_core"} 1450`), body)
}

func TestCtlParam(t *testing.T) {
	assert.Equal(t, int64(1200), ctlParam("1200"))
	assert.Equal(t, "on", ctlParam("on"))
}
