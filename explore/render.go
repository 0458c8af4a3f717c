package explore

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

// RenderFrame writes f as an aligned table with a leading row-index column.
// rowOffset is added to printed indices so that Tail keeps original positions.
func RenderFrame(w io.Writer, f *dataframe.Frame, rowOffset int) error {
	if err := requireFrame("explore.RenderFrame", f); err != nil {
		return err
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(f.Names(), "\t"))
	rows, _ := f.Shape()
	cols := f.Columns()
	for i := 0; i < rows; i++ {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = c.String(i)
		}
		fmt.Fprintf(tw, "%d\t%s\t\n", i+rowOffset, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Preview prints the first and last n rows separated by a rule.
func Preview(w io.Writer, f *dataframe.Frame, n int) error {
	head, err := Head(f, n)
	if err != nil {
		return err
	}
	tail, err := Tail(f, n)
	if err != nil {
		return err
	}
	rows, _ := f.Shape()
	tailRows, _ := tail.Shape()

	fmt.Fprintf(w, "first %d rows:\n", n)
	if err := RenderFrame(w, head, 0); err != nil {
		return err
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "last %d rows:\n", n)
	return RenderFrame(w, tail, rows-tailRows)
}

// RenderInfo writes an Info result.
func RenderInfo(w io.Writer, info *FrameInfo) error {
	if info == nil {
		return errors.Wrap(errors.ErrNoData, "explore.RenderInfo")
	}
	fmt.Fprintf(w, "%d entries, %d columns\n", info.Rows, len(info.Columns))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tColumn\tNon-Null Count\tKind\t")
	for i, c := range info.Columns {
		fmt.Fprintf(tw, "%d\t%s\t%d non-null\t%s\t\n", i, c.Name, c.NonNull, c.Kind)
	}
	return tw.Flush()
}

// RenderDescribe writes Describe output with one column per numeric field.
func RenderDescribe(w io.Writer, summaries []Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "no numeric columns to summarize")
		return err
	}
	tw := newTable(w)
	header := make([]string, len(summaries))
	for i, s := range summaries {
		header[i] = s.Column
	}
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(header, "\t"))

	rows := []struct {
		label string
		get   func(Summary) float64
	}{
		{"count", func(s Summary) float64 { return float64(s.Count) }},
		{"mean", func(s Summary) float64 { return s.Mean }},
		{"std", func(s Summary) float64 { return s.Std }},
		{"min", func(s Summary) float64 { return s.Min }},
		{"25%", func(s Summary) float64 { return s.Q25 }},
		{"50%", func(s Summary) float64 { return s.Median }},
		{"75%", func(s Summary) float64 { return s.Q75 }},
		{"max", func(s Summary) float64 { return s.Max }},
	}
	for _, r := range rows {
		cells := make([]string, len(summaries))
		for i, s := range summaries {
			cells[i] = formatStat(r.get(s))
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// RenderMissing writes per-column missing counts and the total.
func RenderMissing(w io.Writer, report *MissingReport) error {
	if report == nil {
		return errors.Wrap(errors.ErrNoData, "explore.RenderMissing")
	}
	if report.Total == 0 {
		_, err := fmt.Fprintln(w, "no missing values")
		return err
	}
	tw := newTable(w)
	for _, c := range report.Columns {
		fmt.Fprintf(tw, "%s\t%d\t\n", c.Column, c.Count)
	}
	fmt.Fprintf(tw, "total\t%d\t\n", report.Total)
	return tw.Flush()
}

// RenderValueCounts writes one ValueCounts table under a column heading.
func RenderValueCounts(w io.Writer, col string, counts []CategoryCount) error {
	fmt.Fprintf(w, "%s:\n", col)
	tw := newTable(w)
	for _, c := range counts {
		fmt.Fprintf(tw, "  %s\t%d\t\n", c.Value, c.Count)
	}
	return tw.Flush()
}

// UniqueValues prints ValueCounts for each nominated column. Absent columns
// produce a warning line and are skipped. It returns the columns that were skipped.
func UniqueValues(w io.Writer, f *dataframe.Frame, cols []string) ([]string, error) {
	if err := requireFrame("explore.UniqueValues", f); err != nil {
		return nil, err
	}
	var skipped []string
	for _, col := range cols {
		counts, err := ValueCounts(f, col)
		if err != nil {
			var notFound *errors.ColumnNotFoundError
			if errors.As(err, &notFound) {
				fmt.Fprintf(w, "warning: column '%s' not found, skipping\n", col)
				skipped = append(skipped, col)
				continue
			}
			return skipped, err
		}
		if err := RenderValueCounts(w, col, counts); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
