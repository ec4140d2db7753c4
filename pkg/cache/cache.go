// Package cache persists recommendation sets as timestamped JSON
// artifacts. Entries are immutable: re-analysis or a different margin adds
// a new file next to the old ones, so historical comparisons stay
// available.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// DefaultDir is where artifacts live unless configured otherwise.
const DefaultDir = ".analyze_cache"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Cache is a directory of recommendation artifacts.
type Cache struct {
	dir string
}

// New creates a cache rooted at dir, creating the directory on first use.
func New(dir string) *Cache {
	if dir == "" {
		dir = DefaultDir
	}
	return &Cache{dir: dir}
}

// Save writes the set as a new artifact keyed by (task, margin) and the
// generation timestamp. It refuses to overwrite: an existing file with the
// same key is a programming error surfaced to the caller.
func (c *Cache) Save(set *models.RecommendationSet) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	stamp := set.GeneratedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	name := fmt.Sprintf("%s_margin%02d_%s.json",
		sanitize(set.Task), set.MarginPct, stamp.Format("20060102_150405"))
	path := filepath.Join(c.dir, name)

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode recommendation set: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create cache entry %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write cache entry %s: %w", path, err)
	}
	return path, nil
}

// Latest loads the newest artifact for (task, margin). A miss returns
// (nil, "", nil): no cached recommendation is not an error, it just means
// a fresh analysis is needed.
func (c *Cache) Latest(task string, marginPct int) (*models.RecommendationSet, string, error) {
	prefix := fmt.Sprintf("%s_margin%02d_", sanitize(task), marginPct)

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read cache dir: %w", err)
	}

	var candidates []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return nil, "", nil
	}

	// Timestamps sort lexically, so the newest entry is the last name.
	sort.Strings(candidates)
	path := filepath.Join(c.dir, candidates[len(candidates)-1])

	set, err := load(path)
	if err != nil {
		return nil, "", err
	}
	if set.Task != task {
		// A sanitized collision between distinct task names; treat as miss.
		return nil, "", nil
	}
	return set, path, nil
}

// LatestForTask loads the newest artifact for a task regardless of margin.
// The caller can re-derive recommendations at a new margin from the set's
// records without collecting data again.
func (c *Cache) LatestForTask(task string) (*models.RecommendationSet, string, error) {
	prefix := sanitize(task) + "_margin"

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read cache dir: %w", err)
	}

	// The timestamp suffix, not the file name, decides recency here: margin
	// sorts before timestamp in the name, so compare the trailing part.
	var newest, newestStamp string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		stamp := name[strings.LastIndex(name, "margin"):]
		if i := strings.Index(stamp, "_"); i >= 0 {
			stamp = stamp[i+1:]
		}
		if stamp > newestStamp {
			newest, newestStamp = name, stamp
		}
	}
	if newest == "" {
		return nil, "", nil
	}

	path := filepath.Join(c.dir, newest)
	set, err := load(path)
	if err != nil {
		return nil, "", err
	}
	if set.Task != task {
		return nil, "", nil
	}
	return set, path, nil
}

func load(path string) (*models.RecommendationSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", path, err)
	}
	var set models.RecommendationSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", path, err)
	}
	return &set, nil
}

func sanitize(task string) string {
	return unsafeChars.ReplaceAllString(task, "_")
}
