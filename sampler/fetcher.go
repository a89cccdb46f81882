package sampler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// StrategyFetcher returns the current sampling configuration for a service.
type StrategyFetcher interface {
	Fetch(serviceName string) (*StrategyResponse, error)
}

const defaultFetchTimeout = 10 * time.Second

// HTTPStrategyFetcher fetches sampling strategies from the agent's
// sampling endpoint over plain HTTP.
type HTTPStrategyFetcher struct {
	endpoint string
	client   *http.Client
}

// NewHTTPStrategyFetcher returns a fetcher querying the given endpoint,
// e.g. "http://localhost:5778/sampling".
func NewHTTPStrategyFetcher(endpoint string) *HTTPStrategyFetcher {
	return &HTTPStrategyFetcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultFetchTimeout},
	}
}

// Fetch implements StrategyFetcher.
func (f *HTTPStrategyFetcher) Fetch(serviceName string) (*StrategyResponse, error) {
	resp, err := f.client.Get(f.endpoint + "?service=" + url.QueryEscape(serviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to query sampling strategies: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sampling strategy endpoint replied with status %d", resp.StatusCode)
	}

	var strategies StrategyResponse
	if err := json.NewDecoder(resp.Body).Decode(&strategies); err != nil {
		return nil, fmt.Errorf("failed to decode sampling strategies: %v", err)
	}
	return &strategies, nil
}
