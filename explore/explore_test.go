package explore

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

func sampleFrame(t *testing.T) *dataframe.Frame {
	t.Helper()
	f, err := dataframe.New(
		dataframe.NewNumeric("idade", []float64{23, math.NaN(), 41, 29, math.NaN()}),
		dataframe.NewNumeric("target", []float64{1, 2, 3, 4, 5}),
		dataframe.NewCategorical("sexo", []string{"F", "M", "", "F", "M"}, []bool{true, true, false, true, true}),
		dataframe.NewCategorical("categoria", []string{"A", "B", "A", "", "B"}, []bool{true, true, true, false, true}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNilFrame(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"Head", func() error { _, err := Head(nil, 5); return err }},
		{"Info", func() error { _, err := Info(nil); return err }},
		{"Describe", func() error { _, err := Describe(nil); return err }},
		{"MissingCounts", func() error { _, err := MissingCounts(nil); return err }},
		{"ValueCounts", func() error { _, err := ValueCounts(nil, "sexo"); return err }},
		{"Preview", func() error { return Preview(&bytes.Buffer{}, nil, 5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, errors.ErrNoData) {
				t.Errorf("%s(nil) error = %v, want ErrNoData", tt.name, err)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	info, err := Info(sampleFrame(t))
	if err != nil {
		t.Fatal(err)
	}
	if info.Rows != 5 || len(info.Columns) != 4 {
		t.Fatalf("Info() = %+v", info)
	}
	if c := info.Columns[0]; c.NonNull != 3 || c.Missing != 2 || c.Kind != dataframe.Numeric {
		t.Errorf("idade info = %+v", c)
	}
}

func TestDescribe(t *testing.T) {
	got, err := Describe(sampleFrame(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Describe() returned %d summaries, want 2", len(got))
	}
	idade := got[0]
	if idade.Count != 3 || idade.Min != 23 || idade.Max != 41 || idade.Median != 29 {
		t.Errorf("idade summary = %+v", idade)
	}
	if math.Abs(idade.Q25-26) > 1e-12 || math.Abs(idade.Q75-35) > 1e-12 {
		t.Errorf("quartiles = (%v, %v), want (26, 35)", idade.Q25, idade.Q75)
	}

	textOnly, _ := dataframe.New(dataframe.NewCategorical("c", []string{"a"}, nil))
	empty, err := Describe(textOnly)
	if err != nil || len(empty) != 0 {
		t.Errorf("Describe(text only) = (%v, %v), want empty", empty, err)
	}
	var buf bytes.Buffer
	if err := RenderDescribe(&buf, empty); err != nil || !strings.Contains(buf.String(), "no numeric columns") {
		t.Errorf("RenderDescribe(empty) wrote %q", buf.String())
	}
}

func TestMissingCountsTotalMatchesColumns(t *testing.T) {
	f := sampleFrame(t)
	report, err := MissingCounts(f)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0
	for _, c := range f.Columns() {
		sum += c.NullCount()
	}
	if report.Total != sum {
		t.Errorf("Total = %d, want %d", report.Total, sum)
	}
	if len(report.Columns) != 3 {
		t.Errorf("columns with missing values = %v, want 3 entries", report.Columns)
	}
	for _, c := range report.Columns {
		if c.Column == "target" {
			t.Error("complete column listed in report")
		}
	}
}

func TestValueCounts(t *testing.T) {
	tests := []struct {
		name string
		col  string
		want []CategoryCount
	}{
		{
			name: "missing counted as not informed",
			col:  "sexo",
			want: []CategoryCount{{"F", 2}, {"M", 2}, {NotInformed, 1}},
		},
		{
			name: "ordered by count then value",
			col:  "categoria",
			want: []CategoryCount{{"A", 2}, {"B", 2}, {NotInformed, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueCounts(sampleFrame(t), tt.col)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ValueCounts() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ValueCounts()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	_, err := ValueCounts(sampleFrame(t), "cidade")
	var nf *errors.ColumnNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("ValueCounts(absent) = %v, want ColumnNotFoundError", err)
	}
}

func TestUniqueValuesSkipsAbsentColumns(t *testing.T) {
	var buf bytes.Buffer
	skipped, err := UniqueValues(&buf, sampleFrame(t), []string{"sexo", "observacao", "categoria"})
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 1 || skipped[0] != "observacao" {
		t.Errorf("skipped = %v", skipped)
	}
	out := buf.String()
	for _, want := range []string{"sexo:", "categoria:", "warning: column 'observacao' not found", NotInformed} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPreviewKeepsTailIndices(t *testing.T) {
	var buf bytes.Buffer
	if err := Preview(&buf, sampleFrame(t), 2); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "first 2 rows") || !strings.Contains(out, "last 2 rows") {
		t.Errorf("Preview() output:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.Fields(lines[len(lines)-1])
	if last[0] != "4" {
		t.Errorf("last printed row index = %s, want 4", last[0])
	}
}
