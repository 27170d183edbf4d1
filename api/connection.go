package api

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Second

type Connection interface {
	Request(method string, endpoint *url.URL, body io.Reader) (*http.Response, error)
}

type ClientHost struct {
	client *http.Client
	scheme string
	host   string
}

type Client struct {
	Connection Connection
}

func (conn *ClientHost) Request(method string, endpoint *url.URL, body io.Reader) (*http.Response, error) {
	endpoint.Scheme = conn.scheme
	endpoint.Host = conn.host

	request, err := http.NewRequest(method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	return conn.client.Do(request)
}

// ClientFactory builds a client for a service host. The host may carry an
// http or https prefix; a bare host gets plain http.
func ClientFactory(host string, timeout time.Duration) *Client {
	scheme := "http"
	if h, ok := strings.CutPrefix(host, "https://"); ok {
		scheme, host = "https", h
	} else if h, ok := strings.CutPrefix(host, "http://"); ok {
		host = h
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout: timeout,
	}

	clientHost := &ClientHost{
		client: client,
		scheme: scheme,
		host:   host,
	}

	return &Client{
		Connection: clientHost,
	}
}
