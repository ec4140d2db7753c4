package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/konflux-perfscale/task-resource-analyzer/pkg/models"
)

func sampleRecords() []models.StepRecord {
	return []models.StepRecord{
		{
			Cluster: "prod-east-1", Task: "buildah", Step: "build",
			MemMaxMB: 7629, MemP95MB: 5000, MemP90MB: 4500, MemMedianMB: 2000,
			MemMaxPod: "build-abc", MemMaxNamespace: "team1-tenant",
			Component: "team1", Application: "shop",
			CPUMaxMilli: 2000, CPUP95Milli: 1500, CPUP90Milli: 1200, CPUMedianMilli: 800,
			CPUMaxPod: "build-abc", CPUMaxNamespace: "team1-tenant",
		},
		{
			Cluster: "stage-west-2", Task: "buildah", Step: "build",
		},
	}
}

func TestNewFormatter(t *testing.T) {
	for _, format := range []string{"", "table", "text", "csv", "json"} {
		if _, err := New(format); err != nil {
			t.Errorf("New(%q) failed: %v", format, err)
		}
	}
	if _, err := New("xml"); err == nil {
		t.Error("New(xml) should fail")
	}
}

func TestCSVRecordsRoundTrip(t *testing.T) {
	f, err := New("csv")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := f.WriteRecords(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], `"cluster","task","step","mem_max_mb"`) {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// Every field is quoted, numbers included.
	for _, field := range strings.Split(lines[1], ",") {
		if !strings.HasPrefix(field, `"`) || !strings.HasSuffix(field, `"`) {
			t.Errorf("field %s is not quoted", field)
		}
	}
	if !strings.Contains(lines[1], `"2000m"`) {
		t.Errorf("CPU values should carry the m suffix: %s", lines[1])
	}

	records, err := ReadRecords(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records back, got %d", len(records))
	}
	want := sampleRecords()
	// The empty record's lookups render as "N/A" and read back as such.
	want[1].Component = "N/A"
	want[1].Application = "N/A"
	if !reflect.DeepEqual(records[0], want[0]) {
		t.Errorf("record 0 round trip mismatch:\n got %+v\nwant %+v", records[0], want[0])
	}
	if records[1].Cluster != "stage-west-2" || !strings.Contains(records[1].Component, "N/A") {
		t.Errorf("record 1 round trip mismatch: %+v", records[1])
	}
}

func TestCSVEscapesQuotes(t *testing.T) {
	f, _ := New("csv")
	var buf bytes.Buffer
	err := f.WriteRecords(&buf, []models.StepRecord{
		{Cluster: `evil"cluster`, Task: "t,with,commas", Step: "s"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"evil""cluster"`) {
		t.Errorf("quotes not escaped: %s", buf.String())
	}

	records, err := ReadRecords(&buf)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if records[0].Cluster != `evil"cluster` || records[0].Task != "t,with,commas" {
		t.Errorf("escaped fields did not survive: %+v", records[0])
	}
}

func TestReadRecordsRejectsBadInput(t *testing.T) {
	if _, err := ReadRecords(strings.NewReader("")); err == nil {
		t.Error("empty input should be rejected")
	}
	if _, err := ReadRecords(strings.NewReader("a,b,c\n1,2,3\n")); err == nil {
		t.Error("a header without the record columns should be rejected")
	}
	if _, err := ReadRecords(strings.NewReader("cluster,task,step,mem_max_mb,cpu_max\nc,t,s,notanumber,100m\n")); err == nil {
		t.Error("a non-numeric statistic should be rejected")
	}
}

func TestJSONRecords(t *testing.T) {
	f, _ := New("json")
	var buf bytes.Buffer
	if err := f.WriteRecords(&buf, sampleRecords()); err != nil {
		t.Fatal(err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(decoded))
	}
	// Statistics stay numbers, not strings.
	if _, ok := decoded[0]["mem_max_mb"].(float64); !ok {
		t.Errorf("mem_max_mb should be a JSON number, got %T", decoded[0]["mem_max_mb"])
	}
	if decorated := decoded[1]["component"]; decorated != "N/A" {
		t.Errorf("empty component should render as N/A, got %v", decorated)
	}
}

func TestJSONRecommendations(t *testing.T) {
	set := &models.RecommendationSet{
		Task:        "buildah",
		MarginPct:   20,
		Days:        7,
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ByBase: map[models.Base][]models.StepRecommendation{
			models.BaseMax: {{
				Step:   "build",
				Memory: models.ResourceRecommendation{Kind: models.KindMemory, Kubernetes: "4Gi"},
				CPU:    models.ResourceRecommendation{Kind: models.KindCPU, Kubernetes: "1500m"},
			}},
		},
	}

	f, _ := New("json")
	var buf bytes.Buffer
	err := f.WriteRecommendations(&buf, set, models.BaseMax, map[string]models.StepResources{
		"build": {MemoryRequest: "2Gi"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc["task"] != "buildah" || doc["base"] != "max" {
		t.Errorf("unexpected envelope: %v", doc)
	}
	recs, ok := doc["recommendations"].([]interface{})
	if !ok || len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %v", doc["recommendations"])
	}
}

func TestTableOutputs(t *testing.T) {
	f, _ := New("table")
	var buf bytes.Buffer
	if err := f.WriteRecords(&buf, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "prod-east-1") || !strings.Contains(buf.String(), "MEM MAX") {
		t.Errorf("table output missing expected content:\n%s", buf.String())
	}

	set := &models.RecommendationSet{
		Task:      "buildah",
		MarginPct: 20,
		Days:      7,
		ByBase: map[models.Base][]models.StepRecommendation{
			models.BaseP95: {{
				Step:   "build",
				Memory: models.ResourceRecommendation{Kubernetes: "4Gi", Coverage: 2, ClusterCount: 3},
				CPU:    models.ResourceRecommendation{Kubernetes: "1500m", Coverage: 2, ClusterCount: 3},
			}},
		},
	}
	buf.Reset()
	if err := f.WriteRecommendations(&buf, set, models.BaseP95, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "4Gi") || !strings.Contains(out, "2/3") {
		t.Errorf("recommendation table missing expected content:\n%s", out)
	}
}

func TestMillicores(t *testing.T) {
	if got := millicores(1500); got != "1500m" {
		t.Errorf("millicores(1500) = %q", got)
	}
	if got := millicores(0); got != "0m" {
		t.Errorf("millicores(0) = %q", got)
	}
}
