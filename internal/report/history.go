package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/commission-tally/internal/aggregate"
	"github.com/j-veylop/commission-tally/internal/models"
)

const (
	pathColumnWidth = 48
	chartHeight     = 8
	minChartWidth   = 20
)

// History writes a table of runs, newest first, followed by a chart of the
// totals in chronological order when there are at least two runs.
func (r *Reporter) History(runs []models.Run, width int) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(r.out, r.theme.Muted.Render("No runs recorded"))
		return
	}

	header := fmt.Sprintf("%-19s  %16s  %7s  %8s  %s", "RECORDED", "TOTAL", "MATCHES", "WARNINGS", "INPUT")
	_, _ = fmt.Fprintln(r.out, r.theme.TableHeader.Render(header))

	for _, run := range runs {
		_, _ = fmt.Fprintf(r.out, "%s  %16s  %7d  %8d  %s\n",
			r.theme.Muted.Render(run.Timestamp.Local().Format("2006-01-02 15:04:05")),
			FormatTotal(run.Total, run.Matches),
			run.Matches,
			run.Warnings,
			truncatePath(run.InputPath, pathColumnWidth))
	}

	chart := RenderTotalsChart(runs, width)
	if chart == "" {
		return
	}

	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintln(r.out, chart)
}

// truncatePath keeps the tail of p, which holds the file name, within width cells.
func truncatePath(p string, width int) string {
	overflow := ansi.StringWidth(p) - width
	if overflow <= 0 {
		return p
	}
	return ansi.TruncateLeft(p, overflow+1, "…")
}

// RenderTotalsChart plots finite run totals oldest to newest. It returns ""
// when fewer than two totals can be plotted.
func RenderTotalsChart(runs []models.Run, width int) string {
	if width < minChartWidth {
		width = minChartWidth
	}

	data := make([]float64, 0, len(runs))
	lo, hi := math.Inf(1), math.Inf(-1)
	// runs arrive newest first
	for i := len(runs) - 1; i >= 0; i-- {
		total := runs[i].Total
		if math.IsNaN(total) || math.IsInf(total, 0) {
			continue
		}
		data = append(data, total)
		lo, hi = math.Min(lo, total), math.Max(hi, total)
	}
	// the plot scales by hi-lo, which must itself be finite
	if len(data) < 2 || math.IsInf(hi-lo, 0) {
		return ""
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("total %s over the last %d runs", aggregate.TargetKey, len(data))),
	)
	return strings.TrimRight(graph, "\n")
}
