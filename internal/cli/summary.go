package cli

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/alnah/adiclip/internal/format"
	"github.com/alnah/adiclip/internal/pipeline"
)

// maxProblemRows bounds the per-video rows of the summary.
const maxProblemRows = 20

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderSummary renders the run totals, followed by the videos that did not
// complete cleanly.
func renderSummary(r *pipeline.Report) string {
	t := r.Totals()
	itoa := strconv.Itoa

	var b strings.Builder
	b.WriteString(renderTable(
		[]string{"Result", "Count"},
		[][]string{
			{"Videos", itoa(t.Units)},
			{"Fetched", itoa(t.Fetched)},
			{"Already present", itoa(t.Reused)},
			{"Fetch failed", itoa(t.FetchFailed)},
			{"Clips written", itoa(t.Clips)},
			{"Clips failed", itoa(t.ClipFailures)},
			{"Canceled", itoa(t.Canceled)},
			{"Skipped", itoa(t.Skipped)},
			{"Filesystem errors", itoa(t.FSErrors + t.ReapFailures)},
			{"Elapsed", format.Duration(r.Elapsed())},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	var rows [][]string
	hidden := 0
	for _, u := range r.Problems() {
		if len(rows) == maxProblemRows {
			hidden++
			continue
		}
		rows = append(rows, []string{
			u.VideoID,
			u.Outcome.String(),
			itoa(u.ClipsOK()) + "/" + itoa(u.Segments),
			firstError(u),
		})
	}
	if len(rows) > 0 {
		b.WriteString("\n")
		b.WriteString(renderTable(
			[]string{"Video", "Outcome", "Clips", "Error"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
		if hidden > 0 {
			b.WriteString("\n... and " + format.Count(hidden, "more video", "more videos"))
		}
	}
	return b.String()
}

// firstError returns a one-line description of why a unit did not complete.
func firstError(u pipeline.UnitResult) string {
	err := u.Err
	if err == nil {
		for _, c := range u.Clips {
			if c.Err != nil {
				err = c.Err
				break
			}
		}
	}
	if err == nil && u.ReapErr != nil {
		err = u.ReapErr
	}
	if err == nil {
		return ""
	}
	line, _, _ := strings.Cut(err.Error(), "\n")
	const maxLen = 80
	if len(line) > maxLen {
		line = line[:maxLen-3] + "..."
	}
	return line
}
