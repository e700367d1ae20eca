package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/signalnine/lighthouse-groupie/internal/result"
)

// TimeStampLayout formats the aggregate's timeStamp field.
const TimeStampLayout = "2006-01-02_15:04:05"

// Report is the aggregate of several lighthouse runs. Every series holds
// exactly one entry per input file, in input order; nil entries are absent
// values.
type Report struct {
	Domain      string
	TimeStamp   string
	TimingsOnly bool
	Runs        int
	series      map[string][]*float64
}

// Aggregate reads every result file in order and folds the tracked metrics
// into one report. The first failing file aborts the whole aggregation.
func Aggregate(domain string, files []string, timingsOnly bool) (*Report, error) {
	return AggregateAt(domain, files, timingsOnly, time.Now())
}

// AggregateAt is Aggregate with an explicit timestamp.
func AggregateAt(domain string, files []string, timingsOnly bool, now time.Time) (*Report, error) {
	metrics := Selected(timingsOnly)
	series := make(map[string][]*float64, len(metrics))
	for _, m := range metrics {
		series[m.Key] = make([]*float64, 0, len(files))
	}

	for _, path := range files {
		slog.Debug("collecting results", "run", path)
		doc, err := readResult(path)
		if err != nil {
			return nil, err
		}
		for _, m := range metrics {
			v, err := extract(m, doc)
			if err != nil {
				return nil, &result.Error{Kind: result.Schema, Path: path, Err: err}
			}
			series[m.Key] = append(series[m.Key], v)
		}
	}

	return &Report{
		Domain:      domain,
		TimeStamp:   now.UTC().Format(TimeStampLayout),
		TimingsOnly: timingsOnly,
		Runs:        len(files),
		series:      series,
	}, nil
}

func readResult(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &result.Error{Kind: result.IO, Path: path, Err: err}
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &result.Error{Kind: result.Parse, Path: path, Err: err}
	}
	return doc, nil
}

func lookup(doc any, path []string) (any, bool) {
	cur := doc
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func extract(m Metric, doc any) (*float64, error) {
	v, ok := lookup(doc, m.Path)
	if !ok || v == nil {
		return nil, nil
	}
	switch m.Rule {
	case ItemCount:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected an array, got %T", strings.Join(m.Path, "."), v)
		}
		n := float64(len(items))
		return &n, nil
	default:
		f, ok := v.(float64)
		if !ok {
			return nil, nil
		}
		return &f, nil
	}
}

// Metrics returns the metrics present in this report, in output order.
func (r *Report) Metrics() []Metric {
	return Selected(r.TimingsOnly)
}

// Series returns the samples for key, or nil if the report does not carry it.
func (r *Report) Series(key string) []*float64 {
	return r.series[key]
}

// MarshalJSON writes keys in a fixed order: domain (full mode only),
// timeStamp, then one array per metric.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	field := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if !r.TimingsOnly {
		if err := field("domain", r.Domain); err != nil {
			return nil, err
		}
	}
	if err := field("timeStamp", r.TimeStamp); err != nil {
		return nil, err
	}
	for _, m := range r.Metrics() {
		s := r.series[m.Key]
		if s == nil {
			s = []*float64{}
		}
		if err := field(m.Key, s); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
