package core

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/quantopy-dev/quantopy/models"
)

// newTestServer serves the real router. The stateless endpoints never touch
// the database, so no connection is wired in.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	sc := ServiceContext{Context: context.Background(), Logger: zerolog.Nop()}
	server := GetHttpServer(sc, "")

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)

	return resp
}

func decodeResponse[T any](t *testing.T, resp *http.Response) m.ServiceResponse[T] {
	t.Helper()
	defer resp.Body.Close()

	var out m.ServiceResponse[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestPingEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse[map[string]string](t, resp)
	require.NotNil(t, out.Data)
	assert.Equal(t, "pong", (*out.Data)["message"])
}

func TestPeriodsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/periods")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse[m.AnalysisSettingsResources](t, resp)
	require.NotNil(t, out.Data)
	assert.Equal(t, 252, out.Data.Periods["daily"])
	assert.Equal(t, 12, out.Data.Periods["monthly"])
	assert.Contains(t, out.Data.Compounding, "simple")
	assert.Contains(t, out.Data.Compounding, "continuous")
}

func TestSeriesAnalyticsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/series/analytics", m.SeriesAnalyticsRequest{
		Name:   "demo",
		Prices: []float64{10, 12, 15},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse[m.ReturnAnalytics](t, resp)
	require.NotNil(t, out.Data)
	assert.Equal(t, "demo", out.Data.Name)
	assert.Equal(t, 2, out.Data.Observations)
	assert.InDelta(t, 0.22474487, out.Data.Gmean, 1e-8)
}

func TestSeriesAnalyticsEndpointRejectsAmbiguousPayload(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/series/analytics", m.SeriesAnalyticsRequest{
		Returns: []float64{0.1},
		Prices:  []float64{10, 11},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	out := decodeResponse[m.ReturnAnalytics](t, resp)
	assert.Nil(t, out.Data)
	assert.NotEmpty(t, out.Error)
}

func TestSeriesAnalyticsEndpointRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/series/analytics", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTableAnalyticsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/table/analytics", m.TableAnalyticsRequest{
		Columns: []m.NamedSequencePayload{
			{Name: "a", Returns: []float64{0.25, -0.2}},
			{Name: "b", Prices: []float64{10, 11, 12.1}},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeResponse[m.TableAnalyticsResponse](t, resp)
	require.NotNil(t, out.Data)
	require.Len(t, out.Data.Results, 2)
	assert.Equal(t, "a", out.Data.Results[0].Name)
	assert.Equal(t, "b", out.Data.Results[1].Name)
	assert.InDelta(t, 0.1, out.Data.Results[1].Gmean, 1e-9)
}

func TestTableAnalyticsEndpointNamesFailingColumn(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/table/analytics", m.TableAnalyticsRequest{
		Columns: []m.NamedSequencePayload{
			{Name: "ok", Returns: []float64{0.1, 0.2}},
			{Name: "bad", Prices: []float64{5}},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	out := decodeResponse[m.TableAnalyticsResponse](t, resp)
	assert.Nil(t, out.Data)
	assert.Contains(t, out.Error, "bad")
}

func TestGroupIdMustBeNumeric(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/groups/abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
