// Package taskdef parses Tekton Task definitions to derive the task name,
// its step list and the currently configured resource requests/limits.
package taskdef

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/api/resource"
	"sigs.k8s.io/yaml"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// Task is the analyzer's view of a Tekton Task definition.
type Task struct {
	Name      string
	Steps     []string
	Resources map[string]models.StepResources
	Source    string
}

type taskYAML struct {
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Spec struct {
		StepTemplate *stepYAML  `json:"stepTemplate"`
		Steps        []stepYAML `json:"steps"`
	} `json:"spec"`
}

type stepYAML struct {
	Name             string `json:"name"`
	ComputeResources *struct {
		Requests map[string]string `json:"requests"`
		Limits   map[string]string `json:"limits"`
	} `json:"computeResources"`
}

var githubBlobRe = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/blob/([^/]+)/(.+)$`)

// RawGitHubURL rewrites a GitHub blob URL to its raw-content form; any
// other URL comes back unchanged.
func RawGitHubURL(url string) string {
	if m := githubBlobRe.FindStringSubmatch(url); m != nil {
		return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", m[1], m[2], m[3], m[4])
	}
	return url
}

// Load reads a Task definition from a local path or an http(s) URL.
func Load(pathOrURL string) (*Task, error) {
	var data []byte
	var source string
	var err error

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		source = RawGitHubURL(pathOrURL)
		data, err = fetch(source)
	} else {
		source = pathOrURL
		data, err = os.ReadFile(pathOrURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task definition %s: %w", source, err)
	}

	return Parse(data, source)
}

// Parse decodes the YAML and applies stepTemplate defaults to every step
// that does not set its own resources.
func Parse(data []byte, source string) (*Task, error) {
	var doc taskYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse task definition: %w", err)
	}
	if doc.Metadata.Name == "" {
		return nil, fmt.Errorf("task definition has no metadata.name")
	}
	if len(doc.Spec.Steps) == 0 {
		return nil, fmt.Errorf("task %q defines no steps", doc.Metadata.Name)
	}

	defaults := resourcesOf(doc.Spec.StepTemplate)

	task := &Task{
		Name:      doc.Metadata.Name,
		Resources: make(map[string]models.StepResources, len(doc.Spec.Steps)),
		Source:    source,
	}
	for _, step := range doc.Spec.Steps {
		if step.Name == "" {
			continue
		}
		task.Steps = append(task.Steps, step.Name)
		task.Resources[step.Name] = mergeResources(resourcesOf(&step), defaults)
	}
	return task, nil
}

func resourcesOf(step *stepYAML) models.StepResources {
	var res models.StepResources
	if step == nil || step.ComputeResources == nil {
		return res
	}
	res.MemoryRequest = validQuantity(step.ComputeResources.Requests["memory"])
	res.CPURequest = validQuantity(step.ComputeResources.Requests["cpu"])
	res.MemoryLimit = validQuantity(step.ComputeResources.Limits["memory"])
	res.CPULimit = validQuantity(step.ComputeResources.Limits["cpu"])
	return res
}

// validQuantity keeps a value only when it parses as a Kubernetes
// quantity, so downstream comparisons never choke on a typo.
func validQuantity(value string) string {
	if value == "" {
		return ""
	}
	if _, err := resource.ParseQuantity(value); err != nil {
		return ""
	}
	return value
}

func mergeResources(step, defaults models.StepResources) models.StepResources {
	if step.MemoryRequest == "" {
		step.MemoryRequest = defaults.MemoryRequest
	}
	if step.CPURequest == "" {
		step.CPURequest = defaults.CPURequest
	}
	if step.MemoryLimit == "" {
		step.MemoryLimit = defaults.MemoryLimit
	}
	if step.CPULimit == "" {
		step.CPULimit = defaults.CPULimit
	}
	return step
}

func fetch(url string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
