package aggregate_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/signalnine/lighthouse-groupie/internal/aggregate"
	"github.com/signalnine/lighthouse-groupie/internal/result"
)

var fixtures = []string{
	"testdata/google-score-test-1.json",
	"testdata/google-score-test-2.json",
}

// decode round-trips a report through JSON the way a consumer would see it.
func decode(t *testing.T, rep *aggregate.Report) map[string]any {
	t.Helper()
	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestAggregateFixtures(t *testing.T) {
	rep, err := aggregate.Aggregate("test", fixtures, false)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	out := decode(t, rep)

	bp := out["bestPractices"].([]any)
	if len(bp) != 2 {
		t.Fatalf("bestPractices: got %d entries, want 2", len(bp))
	}
	if int(bp[0].(float64)) != 1 {
		t.Errorf("bestPractices[0] = %v, want 1", bp[0])
	}
	if got := out["bootupTime"].([]any)[0].(float64); int(got) != 70 {
		t.Errorf("bootupTime[0] = %v, want 70", got)
	}
	if got := out["firstMeaningfulPaint"].([]any)[0].(float64); int(got) != 1143 {
		t.Errorf("firstMeaningfulPaint[0] = %v, want 1143", got)
	}
	files := out["totalFileCount"].([]any)
	if files[0].(float64) != 3 || files[1].(float64) != 2 {
		t.Errorf("totalFileCount = %v, want [3 2]", files)
	}
	if out["domain"] != "test" {
		t.Errorf("domain = %v, want test", out["domain"])
	}
}

func TestAggregateSeriesLength(t *testing.T) {
	var files []string
	for i := 0; i < 5; i++ {
		files = append(files, fixtures[i%2])
	}
	rep, err := aggregate.Aggregate("example.com", files, false)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for _, m := range aggregate.Metrics {
		if got := len(rep.Series(m.Key)); got != len(files) {
			t.Errorf("%s: got %d entries, want %d", m.Key, got, len(files))
		}
	}
	// index alignment: odd positions come from fixture 2
	if got := *rep.Series("bootupTime")[1]; got != 84 {
		t.Errorf("bootupTime[1] = %v, want 84", got)
	}
}

func TestAggregateMissingFieldIsNull(t *testing.T) {
	dir := t.TempDir()
	sparse := writeFile(t, dir, "sparse.json", `{
		"audits": {
			"bootup-time": {"numericValue": "fast"},
			"interactive": {}
		},
		"categories": {"seo": {"score": null}}
	}`)
	rep, err := aggregate.Aggregate("example.com", []string{fixtures[0], sparse, fixtures[1]}, false)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for _, m := range aggregate.Metrics {
		s := rep.Series(m.Key)
		if len(s) != 3 {
			t.Fatalf("%s: got %d entries, want 3", m.Key, len(s))
		}
		if s[1] != nil {
			t.Errorf("%s[1] = %v, want nil", m.Key, *s[1])
		}
		if s[0] == nil || s[2] == nil {
			t.Errorf("%s: neighbours of the sparse file should be set", m.Key)
		}
	}
	out := decode(t, rep)
	if v := out["seo"].([]any)[1]; v != nil {
		t.Errorf("seo[1] = %v, want null", v)
	}
}

func TestAggregateTimingsOnly(t *testing.T) {
	rep, err := aggregate.Aggregate("example.com", fixtures, true)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	out := decode(t, rep)
	want := []string{
		"timeStamp", "firstContentfulPaint", "firstMeaningfulPaint", "totalBlockingTime",
		"timeToInteractive", "serverResponseTime", "bootupTime", "roundTripTime", "totalByteWeight",
	}
	if len(out) != len(want) {
		t.Errorf("got %d keys, want %d: %v", len(out), len(want), out)
	}
	for _, k := range want {
		if _, ok := out[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	for _, k := range []string{"domain", "totalFileCount", "performance", "seo", "bestPractices"} {
		if _, ok := out[k]; ok {
			t.Errorf("unexpected key %q in timings-only output", k)
		}
	}
}

func TestAggregateKeyOrder(t *testing.T) {
	rep, err := aggregate.AggregateAt("example.com", nil, false, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	keys := []string{"domain", "timeStamp", "firstContentfulPaint", "totalFileCount", "performance", "seo", "bestPractices"}
	last := -1
	for _, k := range keys {
		i := strings.Index(string(data), `"`+k+`"`)
		if i < 0 {
			t.Fatalf("key %q missing from %s", k, data)
		}
		if i < last {
			t.Errorf("key %q out of order in %s", k, data)
		}
		last = i
	}
	if !strings.Contains(string(data), `"timeStamp":"2024-01-02_03:04:05"`) {
		t.Errorf("unexpected timestamp in %s", data)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	rep, err := aggregate.Aggregate("example.com", nil, false)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	out := decode(t, rep)
	for _, m := range aggregate.Metrics {
		s, ok := out[m.Key].([]any)
		if !ok {
			t.Errorf("%s: expected an empty array, got %#v", m.Key, out[m.Key])
			continue
		}
		if len(s) != 0 {
			t.Errorf("%s: expected no entries, got %d", m.Key, len(s))
		}
	}
}

func TestAggregateDeterministic(t *testing.T) {
	a, err := aggregate.Aggregate("example.com", fixtures, false)
	if err != nil {
		t.Fatalf("first Aggregate: %v", err)
	}
	b, err := aggregate.Aggregate("example.com", fixtures, false)
	if err != nil {
		t.Fatalf("second Aggregate: %v", err)
	}
	outA, outB := decode(t, a), decode(t, b)
	delete(outA, "timeStamp")
	delete(outB, "timeStamp")
	if !reflect.DeepEqual(outA, outB) {
		t.Errorf("aggregates differ:\n%v\n%v", outA, outB)
	}
}

func TestAggregateFailures(t *testing.T) {
	dir := t.TempDir()
	badItems := writeFile(t, dir, "bad-items.json", `{
		"audits": {"total-byte-weight": {"numericValue": 10, "details": {"items": {"url": "x"}}}}
	}`)
	invalid := writeFile(t, dir, "invalid.json", `{"audits": `)
	missing := filepath.Join(dir, "missing.json")

	tests := []struct {
		name        string
		files       []string
		timingsOnly bool
		kind        result.Kind
	}{
		{"items not an array", []string{fixtures[0], badItems}, false, result.Schema},
		{"malformed json", []string{invalid, fixtures[0]}, false, result.Parse},
		{"missing file", []string{fixtures[0], missing}, false, result.IO},
		{"malformed json in timings mode", []string{invalid}, true, result.Parse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := aggregate.Aggregate("example.com", tt.files, tt.timingsOnly)
			if err == nil {
				t.Fatalf("expected error, got report %+v", rep)
			}
			if rep != nil {
				t.Error("expected no partial report on failure")
			}
			if !result.IsKind(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestItemCountMissingIsNull(t *testing.T) {
	dir := t.TempDir()
	noItems := writeFile(t, dir, "no-items.json", `{"audits": {"total-byte-weight": {"numericValue": 10}}}`)
	rep, err := aggregate.Aggregate("example.com", []string{noItems}, false)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if s := rep.Series("totalFileCount"); len(s) != 1 || s[0] != nil {
		t.Errorf("totalFileCount = %v, want [nil]", s)
	}
	if s := rep.Series("totalByteWeight"); s[0] == nil || *s[0] != 10 {
		t.Errorf("totalByteWeight = %v, want [10]", s)
	}
}

func TestSelected(t *testing.T) {
	if got := len(aggregate.Selected(false)); got != 12 {
		t.Errorf("full mode: got %d metrics, want 12", got)
	}
	timings := aggregate.Selected(true)
	if len(timings) != 8 {
		t.Errorf("timings mode: got %d metrics, want 8", len(timings))
	}
	for _, m := range timings {
		if !m.Timing {
			t.Errorf("%s selected in timings mode", m.Key)
		}
	}
}
