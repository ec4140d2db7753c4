// Package cluster wraps the control-plane surface of one OpenShift
// cluster: context handling, reachability probing and locating the
// in-cluster Prometheus. Every Client is built from an explicitly named
// kubeconfig context so that parallel workers never fight over a shared
// current-context.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/datasource"
)

// Contexts lists the context names defined in the kubeconfig, sorted.
func Contexts(kubeconfigPath string) ([]string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}

	raw, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).RawConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	names := make([]string, 0, len(raw.Contexts))
	for name := range raw.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Client is one cluster's isolated handle.
type Client struct {
	Context    string
	restConfig *rest.Config
	clientset  kubernetes.Interface
	metrics    metricsv.Interface
}

// NewClient builds a client for the named context. The context is applied
// as an override on an isolated config copy; the kubeconfig on disk and
// its current-context are left untouched.
func NewClient(kubeconfigPath, contextName string) (*Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}

	overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build config for context %q: %w", contextName, err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset for context %q: %w", contextName, err)
	}

	metricsClient, err := metricsv.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client for context %q: %w", contextName, err)
	}

	return &Client{
		Context:    contextName,
		restConfig: restConfig,
		clientset:  clientset,
		metrics:    metricsClient,
	}, nil
}

// Probe verifies the cluster answers, the same way the collection scripts
// did with a plain namespace list.
func (c *Client) Probe(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := c.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("cannot access cluster %q: %w", c.Context, err)
	}
	return nil
}

// routeSpec is the part of an OpenShift route we need.
type routeSpec struct {
	Spec struct {
		Host string `json:"host"`
	} `json:"spec"`
}

// PrometheusEndpoint locates the monitoring Prometheus route and returns a
// backend config carrying its address and this context's bearer token.
func (c *Client) PrometheusEndpoint(ctx context.Context, namespace, name string) (datasource.Config, error) {
	path := fmt.Sprintf("/apis/route.openshift.io/v1/namespaces/%s/routes/%s", namespace, name)
	raw, err := c.clientset.CoreV1().RESTClient().Get().AbsPath(path).DoRaw(ctx)
	if err != nil {
		return datasource.Config{}, fmt.Errorf("failed to get route %s/%s: %w", namespace, name, err)
	}

	var route routeSpec
	if err := json.Unmarshal(raw, &route); err != nil {
		return datasource.Config{}, fmt.Errorf("failed to decode route %s/%s: %w", namespace, name, err)
	}
	if route.Spec.Host == "" {
		return datasource.Config{}, fmt.Errorf("route %s/%s has no host", namespace, name)
	}

	token := c.restConfig.BearerToken
	if token == "" && c.restConfig.BearerTokenFile != "" {
		data, err := os.ReadFile(c.restConfig.BearerTokenFile)
		if err != nil {
			return datasource.Config{}, fmt.Errorf("failed to read token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}

	return datasource.Config{
		Address:            "https://" + route.Spec.Host,
		BearerToken:        token,
		InsecureSkipVerify: true,
	}, nil
}

var displayNameRe = regexp.MustCompile(`/api-([^-]+-[^-]+-[^-]+)`)

// DisplayName shortens a context name for reports, e.g.
// "default/api-stone-prd-rh01-pg1f-p1-openshiftapps-com:6443/user" becomes
// "stone-prd-rh01". Operations always use the full context name.
func DisplayName(contextName string) string {
	if m := displayNameRe.FindStringSubmatch(contextName); m != nil {
		return m[1]
	}
	if idx := strings.LastIndex(contextName, "/"); idx >= 0 {
		return contextName[idx+1:]
	}
	return contextName
}
