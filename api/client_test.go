package api

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/quantopy-dev/quantopy/models"
)

// stubConnection records the outgoing request and replies with a canned
// payload.
type stubConnection struct {
	method string
	path   string
	body   []byte

	status   int
	response string
}

func (s *stubConnection) Request(method string, endpoint *url.URL, body io.Reader) (*http.Response, error) {
	s.method = method
	s.path = endpoint.Path
	if body != nil {
		s.body, _ = io.ReadAll(body)
	}

	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.response)),
	}, nil
}

func TestClientPing(t *testing.T) {
	stub := &stubConnection{status: http.StatusOK, response: `{"data":{"message":"pong"},"error":""}`}
	client := &Client{Connection: stub}

	message, err := client.Ping()
	require.NoError(t, err)

	assert.Equal(t, "pong", message)
	assert.Equal(t, http.MethodGet, stub.method)
	assert.Equal(t, "/api/ping", stub.path)
}

func TestClientAnalyzeSeries(t *testing.T) {
	stub := &stubConnection{
		status:   http.StatusOK,
		response: `{"data":{"name":"demo","observations":2,"mean":0.225,"gmean":0.2247,"totalReturn":0.5,"annualized":1.5,"skew":null,"excessKurtosis":null,"jarqueBera":0.333,"normal":true},"error":""}`,
	}
	client := &Client{Connection: stub}

	res, err := client.AnalyzeSeries(m.SeriesAnalyticsRequest{Name: "demo", Prices: []float64{10, 12, 15}})
	require.NoError(t, err)

	assert.Equal(t, "demo", res.Name)
	assert.Equal(t, 2, res.Observations)
	assert.InDelta(t, 0.225, res.Mean, 1e-12)
	assert.False(t, res.Skew.Valid)
	require.True(t, res.Normal.Valid)
	assert.True(t, res.Normal.Bool)

	assert.Equal(t, http.MethodPost, stub.method)
	assert.Equal(t, "/api/series/analytics", stub.path)
	assert.Contains(t, string(stub.body), `"prices":[10,12,15]`)
}

func TestClientGetSymbols(t *testing.T) {
	stub := &stubConnection{
		status:   http.StatusOK,
		response: `{"data":[{"id":1,"symbol":"VOO","frequency":"daily","lastRefreshed":"2024-01-05T00:00:00Z"}],"error":""}`,
	}
	client := &Client{Connection: stub}

	symbols, err := client.GetSymbols()
	require.NoError(t, err)

	require.Len(t, symbols, 1)
	assert.Equal(t, "VOO", symbols[0].Symbol)
	assert.Equal(t, "/api/symbols", stub.path)
}

func TestClientUploadPrices(t *testing.T) {
	stub := &stubConnection{
		status:   http.StatusOK,
		response: `{"data":{"symbol":"VOO","received":2,"inserted":2,"lastRefreshed":"2024-01-05T00:00:00Z"},"error":""}`,
	}
	client := &Client{Connection: stub}

	res, err := client.UploadPrices("VOO", m.PriceUploadRequest{
		Observations: []m.PriceObservationPayload{
			{Date: "2024-01-04", Price: 431.5},
			{Date: "2024-01-05", Price: 433.2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.Inserted)
	assert.Equal(t, "/api/symbols/VOO/prices", stub.path)
	assert.Equal(t, http.MethodPost, stub.method)
}

func TestClientRunGroupAnalysis(t *testing.T) {
	stub := &stubConnection{
		status:   http.StatusOK,
		response: `{"data":{"runId":12,"results":[]},"error":""}`,
	}
	client := &Client{Connection: stub}

	res, err := client.RunGroupAnalysis(5, m.GroupAnalysisRequest{})
	require.NoError(t, err)

	assert.Equal(t, int32(12), res.RunId)
	assert.Equal(t, "/api/groups/5/analysis", stub.path)
}

func TestClientSurfacesServiceErrors(t *testing.T) {
	stub := &stubConnection{
		status:   http.StatusUnprocessableEntity,
		response: `{"data":null,"error":"series \"demo\": insufficient data"}`,
	}
	client := &Client{Connection: stub}

	_, err := client.AnalyzeSeries(m.SeriesAnalyticsRequest{Name: "demo", Prices: []float64{5}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "insufficient data")
}

func TestClientDeleteGroup(t *testing.T) {
	stub := &stubConnection{status: http.StatusNoContent, response: ""}
	client := &Client{Connection: stub}

	require.NoError(t, client.DeleteGroup(7))
	assert.Equal(t, http.MethodDelete, stub.method)
	assert.Equal(t, "/api/groups/7", stub.path)
}

func TestClientDeleteGroupFailure(t *testing.T) {
	stub := &stubConnection{
		status:   http.StatusNotFound,
		response: `{"data":null,"error":"not found: group 9"}`,
	}
	client := &Client{Connection: stub}

	err := client.DeleteGroup(9)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestClientFactorySchemes(t *testing.T) {
	host := ClientFactory("localhost:8080", 0).Connection.(*ClientHost)
	assert.Equal(t, "http", host.scheme)
	assert.Equal(t, "localhost:8080", host.host)
	assert.Equal(t, DefaultTimeout, host.client.Timeout)

	host = ClientFactory("https://returns.example.com", DefaultTimeout).Connection.(*ClientHost)
	assert.Equal(t, "https", host.scheme)
	assert.Equal(t, "returns.example.com", host.host)

	host = ClientFactory("http://returns.internal:9000", DefaultTimeout).Connection.(*ClientHost)
	assert.Equal(t, "http", host.scheme)
	assert.Equal(t, "returns.internal:9000", host.host)
}
