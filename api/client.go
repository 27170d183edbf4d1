package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	m "github.com/quantopy-dev/quantopy/models"
)

// Ping checks that the service is reachable.
func (c *Client) Ping() (string, error) {
	res, err := requestJSON[map[string]string](c, http.MethodGet, "/api/ping", nil)
	if err != nil {
		return "", err
	}

	return (*res)["message"], nil
}

// GetAnalysisSettings lists the period and compounding names the service
// accepts.
func (c *Client) GetAnalysisSettings() (*m.AnalysisSettingsResources, error) {
	return requestJSON[m.AnalysisSettingsResources](c, http.MethodGet, "/api/periods", nil)
}

// AnalyzeSeries computes return analytics over one posted sequence.
func (c *Client) AnalyzeSeries(req m.SeriesAnalyticsRequest) (*m.ReturnAnalytics, error) {
	return requestJSON[m.ReturnAnalytics](c, http.MethodPost, "/api/series/analytics", req)
}

// AnalyzeTable computes return analytics over several posted sequences as one
// table.
func (c *Client) AnalyzeTable(req m.TableAnalyticsRequest) (*m.TableAnalyticsResponse, error) {
	return requestJSON[m.TableAnalyticsResponse](c, http.MethodPost, "/api/table/analytics", req)
}

// GetSymbols lists every registered symbol.
func (c *Client) GetSymbols() ([]m.SymbolResponse, error) {
	res, err := requestJSON[[]m.SymbolResponse](c, http.MethodGet, "/api/symbols", nil)
	if err != nil {
		return nil, err
	}

	return *res, nil
}

// RegisterSymbol gets or creates the stored series for a symbol.
func (c *Client) RegisterSymbol(req m.SymbolRequest) (*m.SymbolResponse, error) {
	return requestJSON[m.SymbolResponse](c, http.MethodPost, "/api/symbols", req)
}

// UploadPrices stores observations for a registered symbol.
func (c *Client) UploadPrices(symbol string, req m.PriceUploadRequest) (*m.PriceUploadResponse, error) {
	path := fmt.Sprintf("/api/symbols/%s/prices", url.PathEscape(symbol))
	return requestJSON[m.PriceUploadResponse](c, http.MethodPost, path, req)
}

// RunAnalysis analyzes stored symbols over an optional date window.
func (c *Client) RunAnalysis(req m.AnalysisRequest) (*m.AnalysisResponse, error) {
	return requestJSON[m.AnalysisResponse](c, http.MethodPost, "/api/analysis", req)
}

// GetGroups lists every stored group.
func (c *Client) GetGroups() ([]m.GroupResponse, error) {
	res, err := requestJSON[[]m.GroupResponse](c, http.MethodGet, "/api/groups", nil)
	if err != nil {
		return nil, err
	}

	return *res, nil
}

func (c *Client) CreateGroup(req m.GroupRequest) (*m.GroupResponse, error) {
	return requestJSON[m.GroupResponse](c, http.MethodPost, "/api/groups", req)
}

func (c *Client) GetGroup(id int32) (*m.GroupResponse, error) {
	return requestJSON[m.GroupResponse](c, http.MethodGet, fmt.Sprintf("/api/groups/%d", id), nil)
}

func (c *Client) UpdateGroup(id int32, req m.GroupRequest) (*m.GroupResponse, error) {
	return requestJSON[m.GroupResponse](c, http.MethodPut, fmt.Sprintf("/api/groups/%d", id), req)
}

// DeleteGroup soft deletes a group.
func (c *Client) DeleteGroup(id int32) error {
	endpoint := &url.URL{Path: fmt.Sprintf("/api/groups/%d", id)}

	response, err := c.Connection.Request(http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusNoContent {
		return decodeServiceError(response)
	}

	return nil
}

// RunGroupAnalysis analyzes every member of a stored group.
func (c *Client) RunGroupAnalysis(id int32, req m.GroupAnalysisRequest) (*m.AnalysisResponse, error) {
	return requestJSON[m.AnalysisResponse](c, http.MethodPost, fmt.Sprintf("/api/groups/%d/analysis", id), req)
}

// requestJSON performs one round trip and unwraps the service envelope.
func requestJSON[T any](c *Client, method, path string, payload any) (*T, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	endpoint := &url.URL{Path: path}
	response, err := c.Connection.Request(method, endpoint, body)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	var decoded m.ServiceResponse[T]
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		if decoded.Error != "" {
			return nil, fmt.Errorf("service returned %d: %s", response.StatusCode, decoded.Error)
		}
		return nil, fmt.Errorf("service returned %d", response.StatusCode)
	}

	if decoded.Data == nil {
		return nil, fmt.Errorf("service response carries no data")
	}

	return decoded.Data, nil
}

func decodeServiceError(response *http.Response) error {
	var decoded m.ServiceResponse[any]
	if err := json.NewDecoder(response.Body).Decode(&decoded); err == nil && decoded.Error != "" {
		return fmt.Errorf("service returned %d: %s", response.StatusCode, decoded.Error)
	}

	return fmt.Errorf("service returned %d", response.StatusCode)
}
