package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

// ReadRecords parses the record CSV layout back into StepRecords, so a
// collection run can be piped straight into the recommendation side.
// Columns are located by header name; unknown extra columns are ignored.
func ReadRecords(r io.Reader) ([]models.StepRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input, expected a record CSV header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"cluster", "task", "step", "mem_max_mb", "cpu_max"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("record CSV missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []models.StepRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		rec := models.StepRecord{
			Cluster:         field(row, "cluster"),
			Task:            field(row, "task"),
			Step:            field(row, "step"),
			MemMaxPod:       field(row, "mem_max_pod"),
			MemMaxNamespace: field(row, "mem_max_namespace"),
			Component:       field(row, "component"),
			Application:     field(row, "application"),
			CPUMaxPod:       field(row, "cpu_max_pod"),
			CPUMaxNamespace: field(row, "cpu_max_namespace"),
		}
		if rec.MemMaxMB, err = parseMB(field(row, "mem_max_mb")); err != nil {
			return nil, fmt.Errorf("line %d mem_max_mb: %w", line, err)
		}
		if rec.MemP95MB, err = parseMB(field(row, "mem_p95_mb")); err != nil {
			return nil, fmt.Errorf("line %d mem_p95_mb: %w", line, err)
		}
		if rec.MemP90MB, err = parseMB(field(row, "mem_p90_mb")); err != nil {
			return nil, fmt.Errorf("line %d mem_p90_mb: %w", line, err)
		}
		if rec.MemMedianMB, err = parseMB(field(row, "mem_median_mb")); err != nil {
			return nil, fmt.Errorf("line %d mem_median_mb: %w", line, err)
		}
		if rec.CPUMaxMilli, err = parseMillicores(field(row, "cpu_max")); err != nil {
			return nil, fmt.Errorf("line %d cpu_max: %w", line, err)
		}
		if rec.CPUP95Milli, err = parseMillicores(field(row, "cpu_p95")); err != nil {
			return nil, fmt.Errorf("line %d cpu_p95: %w", line, err)
		}
		if rec.CPUP90Milli, err = parseMillicores(field(row, "cpu_p90")); err != nil {
			return nil, fmt.Errorf("line %d cpu_p90: %w", line, err)
		}
		if rec.CPUMedianMilli, err = parseMillicores(field(row, "cpu_median")); err != nil {
			return nil, fmt.Errorf("line %d cpu_median: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseMB(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad memory value %q", s)
	}
	return v, nil
}

func parseMillicores(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, nil
	}
	s = strings.TrimSuffix(s, "m")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad cpu value %q", s)
	}
	return v, nil
}
