package metrics

import (
	"math"
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

func vec(v ...float64) *mat.VecDense { return mat.NewVecDense(len(v), v) }

func TestMetrics(t *testing.T) {
	type metricFunc func(yTrue, yPred *mat.VecDense) (float64, error)
	tests := []struct {
		name    string
		fn      metricFunc
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{"MSE perfect", MSE, vec(1, 2, 3, 4, 5), vec(1, 2, 3, 4, 5), 0, false},
		// ((0.5)^2 * 4) / 4
		{"MSE simple", MSE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.25, false},
		{"MSE larger errors", MSE, vec(10, 20, 30), vec(12, 18, 33), 17.0 / 3.0, false},
		{"MSE dimension mismatch", MSE, vec(1, 2, 3), vec(1, 2), 0, true},
		{"MSE empty", MSE, &mat.VecDense{}, &mat.VecDense{}, 0, true},
		{"RMSE", RMSE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.5, false},
		{"MAE", MAE, vec(10, 20, 30), vec(12, 18, 33), 7.0 / 3.0, false},
		{"MAE nil", MAE, nil, vec(1), 0, true},
		{"R2 perfect", R2Score, vec(1, 2, 3, 4, 5), vec(1, 2, 3, 4, 5), 1, false},
		// 平均予測より悪い場合は負になる
		{"R2 worse than mean", R2Score, vec(1, 2, 3, 4), vec(4, 3, 2, 1), -3, false},
		{"R2 constant target", R2Score, vec(3, 3, 3), vec(2, 3, 4), 0, true},
		// (0.1 + 0.05 + 0.1) / 3 * 100
		{"MAPE", MAPE, vec(10, 20, 30), vec(11, 19, 33), 25.0 / 3.0, false},
		{"MAPE skips zeros", MAPE, vec(0, 10), vec(5, 12), 20, false},
		{"MAPE all zeros", MAPE, vec(0, 0), vec(1, 1), 0, true},
		{"explained variance with bias", ExplainedVarianceScore, vec(1, 2, 3), vec(2, 3, 4), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestR2ScoreZeroVariance(t *testing.T) {
	_, err := R2Score(vec(3, 3, 3), vec(3, 3, 3))
	if !errors.Is(err, errors.ErrZeroVariance) {
		t.Errorf("R2Score() error = %v, want ErrZeroVariance", err)
	}
}

func TestR2ScoreForceFinite(t *testing.T) {
	var mu sync.Mutex
	var warnings []error
	errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, w)
	})
	errors.SetZerologWarnFunc(nil)
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	tests := []struct {
		name       string
		yTrue      *mat.VecDense
		yPred      *mat.VecDense
		want       float64
		wantForced bool
	}{
		{"regular", vec(1, 2, 3), vec(1, 2, 4), 0.5, false},
		{"constant and exact", vec(5, 5), vec(5, 5), 1, true},
		{"constant and off", vec(5, 5), vec(4, 6), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings = nil
			got, forced, err := R2ScoreForceFinite(tt.yTrue, tt.yPred)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want || forced != tt.wantForced {
				t.Errorf("got (%v, %v), want (%v, %v)", got, forced, tt.want, tt.wantForced)
			}
			if tt.wantForced {
				if len(warnings) != 1 {
					t.Fatalf("warnings = %v, want one", warnings)
				}
				var uw *errors.UndefinedMetricWarning
				if !errors.As(warnings[0], &uw) || uw.Result != tt.want {
					t.Errorf("warning = %v", warnings[0])
				}
			}
		})
	}
}

func TestR2ScoreSingleSample(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	errors.SetZerologWarnFunc(nil)
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	got, forced, err := R2ScoreForceFinite(vec(4), vec(3))
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(got) || forced {
		t.Errorf("got (%v, %v), want (NaN, false)", got, forced)
	}
	var uw *errors.UndefinedMetricWarning
	if len(warnings) != 1 || !errors.As(warnings[0], &uw) || !math.IsNaN(uw.Result) {
		t.Errorf("warnings = %v, want one UndefinedMetricWarning with NaN", warnings)
	}

	r, err := Regression(vec(4), vec(3))
	if err != nil {
		t.Fatal(err)
	}
	if r.MAE != 1 || !math.IsNaN(r.R2) {
		t.Errorf("Regression() = %+v", r)
	}
}

func TestRegressionReport(t *testing.T) {
	r, err := Regression(vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5))
	if err != nil {
		t.Fatal(err)
	}
	if r.MAE != 0.5 || r.MSE != 0.25 || r.RMSE != 0.5 || r.R2Forced {
		t.Errorf("Regression() = %+v", r)
	}
	// 1 - 1.0/5.0
	if math.Abs(r.R2-0.8) > 1e-12 {
		t.Errorf("R2 = %v, want 0.8", r.R2)
	}

	if _, err := Regression(vec(1, 2), vec(1)); err == nil {
		t.Error("Regression() accepted mismatched lengths")
	}
}

func BenchmarkMSE(b *testing.B) {
	size := 10000
	yTrue := mat.NewVecDense(size, nil)
	yPred := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.1*float64(i%10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
