package errors

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "LinearRegression.Fit",
			kind:     "factorization failed",
			err:      ErrSingularMatrix,
			wantMsg:  "tabreg: LinearRegression.Fit: factorization failed: singular matrix",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "tabreg: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
			if tt.err != nil && !Is(err, tt.err) {
				t.Errorf("Is(err, %v) = false, want true", tt.err)
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	tests := []struct {
		name string
		axis int
		want string
	}{
		{"rows", 0, "tabreg: Fit: dimension mismatch on axis 0 (rows). Expected 7, got 6"},
		{"features", 1, "tabreg: Fit: dimension mismatch on axis 1 (features). Expected 7, got 6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("Fit", 7, 6, tt.axis)
			if err.Error() != tt.want {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.want)
			}
			var dimErr *DimensionError
			if !As(err, &dimErr) {
				t.Fatal("Error should be castable to *DimensionError")
			}
			if dimErr.Expected != 7 || dimErr.Got != 6 {
				t.Errorf("fields = (%d, %d), want (7, 6)", dimErr.Expected, dimErr.Got)
			}
		})
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LinearRegression", "Predict")

	want := "tabreg: LinearRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestColumnErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		check   func(error) bool
	}{
		{
			name:    "not found with available columns",
			err:     NewColumnNotFoundError("ValueCounts", "cidade", []string{"id", "sexo"}),
			wantMsg: "tabreg: ValueCounts: column 'cidade' not found (available: id, sexo)",
			check: func(err error) bool {
				var target *ColumnNotFoundError
				return As(err, &target) && target.Column == "cidade"
			},
		},
		{
			name:    "not found without listing",
			err:     NewColumnNotFoundError("Histogram", "idade", nil),
			wantMsg: "tabreg: Histogram: column 'idade' not found",
			check: func(err error) bool {
				var target *ColumnNotFoundError
				return As(err, &target)
			},
		},
		{
			name:    "wrong kind",
			err:     NewColumnTypeError("Histogram", "sexo", "numeric", "categorical"),
			wantMsg: "tabreg: Histogram: column 'sexo' is categorical, expected numeric",
			check: func(err error) bool {
				var target *ColumnTypeError
				return As(err, &target) && target.Want == "numeric"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantMsg)
			}
			if !tt.check(tt.err) {
				t.Errorf("type assertion failed for %T", tt.err)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	cause := fmt.Errorf("wrong number of fields")
	err := NewParseError("dados.csv", 4, cause)

	want := "tabreg: parse dados.csv: line 4: wrong number of fields"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !Is(err, cause) {
		t.Error("ParseError should unwrap to its cause")
	}

	noLine := NewParseError("dados.xlsx", 0, cause)
	if strings.Contains(noLine.Error(), "line") {
		t.Errorf("line should be omitted when zero: %q", noLine.Error())
	}
}

func TestMarkFileNotFound(t *testing.T) {
	_, statErr := os.Open("/nonexistent/tabreg/dados.csv")
	err := Mark(Wrapf(statErr, "open %s", "dados.csv"), ErrFileNotFound)

	if !Is(err, ErrFileNotFound) {
		t.Error("marked error should match ErrFileNotFound")
	}
	if !strings.Contains(err.Error(), "open dados.csv") {
		t.Errorf("message lost after Mark: %q", err.Error())
	}
	if Is(err, ErrEmptyData) {
		t.Error("marked error should not match unrelated sentinels")
	}
}

func TestUndefinedMetricWarning(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(func(error) {})

	Warn(NewUndefinedMetricWarning("r2_score", "constant y_true", 0))

	var w *UndefinedMetricWarning
	if !As(got, &w) {
		t.Fatalf("handler received %T, want *UndefinedMetricWarning", got)
	}
	want := "'r2_score' is ill-defined and being set to 0.000000 due to constant y_true."
	if w.Error() != want {
		t.Errorf("Error() = %q, want %q", w.Error(), want)
	}
}

func TestZerologWarnFuncTakesPrecedence(t *testing.T) {
	var viaHandler, viaZerolog int
	SetWarningHandler(func(error) { viaHandler++ })
	SetZerologWarnFunc(func(error) { viaZerolog++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("idade", "categorical", "numeric", "declared schema"))

	if viaZerolog != 1 || viaHandler != 0 {
		t.Errorf("zerolog=%d handler=%d, want 1 and 0", viaZerolog, viaHandler)
	}
}

func TestWrapfAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d rows", "TrainTestSplit", 10)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in TrainTestSplit: expected 10 rows") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestCheckMatrix(t *testing.T) {
	tests := []struct {
		name    string
		data    [][]float64
		wantErr bool
	}{
		{"finite", [][]float64{{1, 2}, {3, 4}}, false},
		{"nan", [][]float64{{1, 2}, {nan(), 4}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMatrix("Fit", grid(tt.data), len(tt.data), len(tt.data[0]))
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckMatrix() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var inst *NumericalInstabilityError
				if !As(err, &inst) {
					t.Errorf("got %T, want *NumericalInstabilityError", err)
				}
			}
		})
	}
}

type grid [][]float64

func (g grid) At(i, j int) float64 { return g[i][j] }

func nan() float64 {
	var zero float64
	return zero / zero
}
