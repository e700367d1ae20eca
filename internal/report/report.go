package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nao1215/markdown"

	"github.com/signalnine/lighthouse-groupie/internal/aggregate"
	"github.com/signalnine/lighthouse-groupie/internal/result"
)

// Formats lists the accepted values for Write's format argument.
var Formats = []string{"json", "table", "markdown"}

// Write renders the aggregate in the given format.
func Write(rep *aggregate.Report, format string, w io.Writer) error {
	switch format {
	case "", "json":
		return writeJSON(rep, w)
	case "table":
		return writeTable(rep, w)
	case "markdown":
		return writeMarkdown(rep, w)
	default:
		return fmt.Errorf("unknown format %q (valid: json, table, markdown)", format)
	}
}

// WriteFile stores the aggregate as pretty-printed JSON at path.
func WriteFile(path string, rep *aggregate.Report) error {
	if err := result.WriteAggregate(path, rep); err != nil {
		return fmt.Errorf("writing aggregate %s: %w", path, err)
	}
	return nil
}

func writeJSON(rep *aggregate.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func writeTable(rep *aggregate.Report, w io.Writer) error {
	metrics := rep.Metrics()
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title(rep))

	header := table.Row{"Run"}
	configs := []table.ColumnConfig{{Name: "Run", Align: text.AlignRight}}
	for _, m := range metrics {
		header = append(header, m.Key)
		configs = append(configs, table.ColumnConfig{Name: m.Key, Align: text.AlignRight})
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for i := 0; i < rep.Runs; i++ {
		row := table.Row{i + 1}
		for _, m := range metrics {
			row = append(row, formatSample(rep.Series(m.Key), i))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

func writeMarkdown(rep *aggregate.Report, w io.Writer) error {
	metrics := rep.Metrics()
	md := markdown.NewMarkdown(w)
	md.H1(title(rep))
	md.PlainText("")

	header := []string{"Run"}
	for _, m := range metrics {
		header = append(header, m.Key)
	}
	rows := make([][]string, 0, rep.Runs)
	for i := 0; i < rep.Runs; i++ {
		row := []string{strconv.Itoa(i + 1)}
		for _, m := range metrics {
			row = append(row, formatSample(rep.Series(m.Key), i))
		}
		rows = append(rows, row)
	}
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	return md.Build()
}

func title(rep *aggregate.Report) string {
	if rep.TimingsOnly || rep.Domain == "" {
		return fmt.Sprintf("Lighthouse timings (%d runs, %s)", rep.Runs, rep.TimeStamp)
	}
	return fmt.Sprintf("Lighthouse results for %s (%d runs, %s)", rep.Domain, rep.Runs, rep.TimeStamp)
}

func formatSample(series []*float64, i int) string {
	if i >= len(series) || series[i] == nil {
		return "-"
	}
	return strconv.FormatFloat(*series[i], 'f', -1, 64)
}
