package datasource

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"k8s.io/client-go/transport"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// PrometheusSource implements RangeSource against one cluster's in-cluster
// Prometheus, reached through its OpenShift route with bearer-token auth.
type PrometheusSource struct {
	client  v1.API
	address string
	timeout time.Duration
}

// NewPrometheusSource creates a client for the given route address. The
// monitoring routes present cluster-internal certificates, so callers
// normally set InsecureSkipVerify, matching how the collection scripts
// always talked to them.
func NewPrometheusSource(cfg Config) (*PrometheusSource, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("prometheus address is empty")
	}

	var rt http.RoundTripper = &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
	}
	if cfg.BearerToken != "" {
		rt = transport.NewBearerAuthRoundTripper(cfg.BearerToken, rt)
	}

	client, err := api.NewClient(api.Config{
		Address:      cfg.Address,
		RoundTripper: rt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &PrometheusSource{
		client:  v1.NewAPI(client),
		address: cfg.Address,
		timeout: timeout,
	}, nil
}

// QueryRange runs one range query over [start, end] with the resolution
// derived from the window length and converts the resulting matrix.
func (p *PrometheusSource) QueryRange(ctx context.Context, expr string, start, end time.Time) ([]models.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, warnings, err := p.client.QueryRange(ctx, expr, v1.Range{
		Start: start,
		End:   end,
		Step:  StepFor(end.Sub(start)),
	})
	if err != nil {
		return nil, fmt.Errorf("range query failed: %w", err)
	}
	if len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "[WARN] Prometheus: %v\n", warnings)
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s for range query", result.Type())
	}

	series := make([]models.Series, 0, len(matrix))
	for _, stream := range matrix {
		s := models.Series{
			Labels: make(map[string]string, len(stream.Metric)),
			Points: make([]models.Point, 0, len(stream.Values)),
		}
		for name, value := range stream.Metric {
			s.Labels[string(name)] = string(value)
		}
		for _, pair := range stream.Values {
			s.Points = append(s.Points, models.Point{
				Timestamp: pair.Timestamp.Time(),
				Value:     float64(pair.Value),
			})
		}
		series = append(series, s)
	}

	return series, nil
}

// IsAvailable probes the backend with a trivial instant query.
func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
