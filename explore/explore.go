// Package explore は読み取り専用の探索的データ分析を提供します。
//
// どの関数も入力の Frame を変更しません。nil の Frame には errors.ErrNoData を返し、
// 呼び出し側（パイプライン）は診断メッセージを表示して処理を続けます。
package explore

import (
	"sort"

	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

// NotInformed is the label under which missing categorical entries are counted.
const NotInformed = "not informed"

// ColumnInfo summarizes one column the way DataFrame.info does.
type ColumnInfo struct {
	Name    string
	Kind    dataframe.Kind
	NonNull int
	Missing int
}

// FrameInfo is the result of Info.
type FrameInfo struct {
	Rows    int
	Columns []ColumnInfo
}

// Summary holds descriptive statistics of one numeric column.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// MissingReport lists columns with missing values and the grand total.
type MissingReport struct {
	Columns []ColumnMissing
	Total   int
}

// ColumnMissing is one entry of a MissingReport.
type ColumnMissing struct {
	Column string
	Count  int
}

// CategoryCount is one row of ValueCounts.
type CategoryCount struct {
	Value string
	Count int
}

func requireFrame(op string, f *dataframe.Frame) error {
	if f == nil {
		return errors.Wrapf(errors.ErrNoData, "%s", op)
	}
	return nil
}

// Head returns the first n rows.
func Head(f *dataframe.Frame, n int) (*dataframe.Frame, error) {
	if err := requireFrame("explore.Head", f); err != nil {
		return nil, err
	}
	return f.Head(n), nil
}

// Tail returns the last n rows.
func Tail(f *dataframe.Frame, n int) (*dataframe.Frame, error) {
	if err := requireFrame("explore.Tail", f); err != nil {
		return nil, err
	}
	return f.Tail(n), nil
}

// Info reports the row count and, per column, its kind and non-null count.
func Info(f *dataframe.Frame) (*FrameInfo, error) {
	if err := requireFrame("explore.Info", f); err != nil {
		return nil, err
	}
	rows, _ := f.Shape()
	info := &FrameInfo{Rows: rows}
	for _, c := range f.Columns() {
		missing := c.NullCount()
		info.Columns = append(info.Columns, ColumnInfo{
			Name:    c.Name,
			Kind:    c.Kind,
			NonNull: rows - missing,
			Missing: missing,
		})
	}
	return info, nil
}

// Describe computes count, mean, std, min, quartiles and max of every
// numeric column. Frames without numeric columns yield an empty result.
func Describe(f *dataframe.Frame) ([]Summary, error) {
	if err := requireFrame("explore.Describe", f); err != nil {
		return nil, err
	}
	var out []Summary
	for _, name := range f.NumericNames() {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		mean, std := c.MeanStd()
		min, max := c.MinMax()
		out = append(out, Summary{
			Column: name,
			Count:  c.Len() - c.NullCount(),
			Mean:   mean,
			Std:    std,
			Min:    min,
			Q25:    c.Quantile(0.25),
			Median: c.Median(),
			Q75:    c.Quantile(0.75),
			Max:    max,
		})
	}
	return out, nil
}

// MissingCounts returns columns with at least one missing value, in frame
// order, and the total over all columns.
func MissingCounts(f *dataframe.Frame) (*MissingReport, error) {
	if err := requireFrame("explore.MissingCounts", f); err != nil {
		return nil, err
	}
	report := &MissingReport{}
	for _, c := range f.Columns() {
		n := c.NullCount()
		if n == 0 {
			continue
		}
		report.Columns = append(report.Columns, ColumnMissing{Column: c.Name, Count: n})
		report.Total += n
	}
	return report, nil
}

// ValueCounts counts the distinct values of col, missing entries included
// under NotInformed. Results are ordered by count descending, then value.
func ValueCounts(f *dataframe.Frame, col string) ([]CategoryCount, error) {
	if err := requireFrame("explore.ValueCounts", f); err != nil {
		return nil, err
	}
	if !f.Has(col) {
		return nil, errors.NewColumnNotFoundError("explore.ValueCounts", col, f.Names())
	}
	s, err := f.Column(col)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i := 0; i < s.Len(); i++ {
		key := NotInformed
		if !s.IsNull(i) {
			key = s.String(i)
		}
		counts[key]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}
