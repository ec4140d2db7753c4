package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/datasource"
)

// Config holds application configuration
type Config struct {
	// Cluster access
	Kubeconfig   string
	ProbeTimeout time.Duration

	// Metrics backend
	PrometheusRouteNamespace string
	PrometheusRouteName      string
	QueryTimeout             time.Duration
	RetryAttempts            int
	RetryBackoff             time.Duration

	// Collection
	NamespacePattern string
	BatchSize        int

	// Recommendation cache
	CacheDir string

	// History storage
	StorageEnabled bool
	DatabaseURL    string

	// Output
	Verbose bool
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		Kubeconfig:               getEnv("KUBECONFIG", ""),
		ProbeTimeout:             2 * time.Minute,
		PrometheusRouteNamespace: getEnv("PROMETHEUS_ROUTE_NAMESPACE", "openshift-monitoring"),
		PrometheusRouteName:      getEnv("PROMETHEUS_ROUTE_NAME", "prometheus-k8s"),
		QueryTimeout:             60 * time.Second,
		RetryAttempts:            getEnvInt("QUERY_RETRY_ATTEMPTS", datasource.DefaultRetry.Attempts),
		RetryBackoff:             datasource.DefaultRetry.Backoff,
		NamespacePattern:         getEnv("NAMESPACE_PATTERN", ".*-tenant"),
		BatchSize:                getEnvInt("POD_BATCH_SIZE", 50),
		CacheDir:                 getEnv("ANALYZE_CACHE_DIR", ".analyze_cache"),
		StorageEnabled:           getEnvBool("STORAGE_ENABLED", false),
		DatabaseURL:              getEnv("DATABASE_URL", "host=localhost port=5432 user=analyzer password=devpassword dbname=taskanalyzer sslmode=disable"),
		Verbose:                  false,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when storage is enabled")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("pod batch size must be at least 1")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("query retry attempts must be at least 1")
	}
	if c.QueryTimeout < time.Second {
		return fmt.Errorf("query timeout must be at least 1s")
	}
	return nil
}
