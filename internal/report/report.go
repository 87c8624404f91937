// Package report renders execution plans and run summaries as text tables.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// WritePlan writes one row per statement in execution order.
func WritePlan(w io.Writer, stmts []dwhetl.Statement) {
	table := newTable(w)
	table.SetHeader([]string{"#", "PHASE", "STATEMENT", "KIND", "DEPENDS ON"})

	for i, s := range stmts {
		deps := "-"
		if len(s.DependsOn) > 0 {
			deps = strings.Join(s.DependsOn, ", ")
		}
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			s.Phase.String(),
			s.Name,
			s.Kind.String(),
			deps,
		})
	}

	table.Render()
}

// WritePlanSQL writes the full text of every statement, each preceded by a
// comment naming its position and phase.
func WritePlanSQL(w io.Writer, stmts []dwhetl.Statement) error {
	for i, s := range stmts {
		if _, err := fmt.Fprintf(w, "-- [%d/%d] %s\n%s;\n\n", i+1, len(stmts), s, s.SQL); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary writes the committed statements of a run with their row
// counts and durations, plus a total.
func WriteSummary(w io.Writer, r dwhetl.Report) {
	table := newTable(w)
	table.SetHeader([]string{"#", "PHASE", "STATEMENT", "ROWS", "DURATION"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	var rows int64
	for i, res := range r.Results {
		rows += res.RowsAffected
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			res.Phase.String(),
			res.Name,
			fmt.Sprintf("%d", res.RowsAffected),
			formatDuration(res.Duration),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%d", rows), formatDuration(r.Duration)})

	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
