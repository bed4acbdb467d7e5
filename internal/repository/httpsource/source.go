// Package httpsource reads incidents from an upstream /api/incidents endpoint.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smartcity/incidentmap/internal/domain"
)

// Source implements domain.IncidentRepository over HTTP
type Source struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a source for an endpoint such as http://localhost:5000/api/incidents
func New(endpoint string, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Source{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchSnapshot downloads the full collection
func (s *Source) FetchSnapshot(ctx context.Context) ([]domain.Incident, error) {
	incidents, err := s.get(ctx, s.endpoint)
	if err != nil {
		return nil, &domain.FetchError{Source: "http", Err: err}
	}
	return incidents, nil
}

// FilterIncidents asks the upstream filter endpoint
func (s *Source) FilterIncidents(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	q := url.Values{}
	for _, a := range domain.Attributes {
		if v := p.Value(a); v != "" {
			q.Set(a.String(), v)
		}
	}
	target := s.endpoint + "/filter"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return s.get(ctx, target)
}

func (s *Source) get(ctx context.Context, target string) ([]domain.Incident, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("httpsource: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpsource: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpsource: %s returned status %d", target, resp.StatusCode)
	}

	incidents := make([]domain.Incident, 0)
	if err := json.NewDecoder(resp.Body).Decode(&incidents); err != nil {
		return nil, fmt.Errorf("httpsource: failed to decode response: %w", err)
	}
	if incidents == nil {
		incidents = make([]domain.Incident, 0)
	}
	return incidents, nil
}

// Health checks upstream connectivity
func (s *Source) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("httpsource: failed to create health request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpsource: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("httpsource: health check returned status %d", resp.StatusCode)
	}
	return nil
}
