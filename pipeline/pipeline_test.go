package pipeline

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabreg/config"
	"github.com/YuminosukeSato/tabreg/core/model"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
	"github.com/YuminosukeSato/tabreg/pkg/log"
)

const smallCSV = `id,age,sexo,target
1,22,F,10.0
2,35,M,14.5
3,,F,11.0
4,41,M,17.2
5,29,F,12.1
6,52,M,19.8
7,38,F,15.0
8,27,M,12.9
9,45,F,16.4
10,33,M,13.7
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "small.csv")
	if err := os.WriteFile(path, []byte(smallCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	c := config.Default()
	c.DataPath = path
	c.EDAColumns = []string{"sexo", "observacao"}
	c.EncodeColumns = []string{"sexo"}
	c.HistogramColumn = "age"
	c.BarColumn = "sexo"
	c.ScatterX, c.ScatterY = "age", "target"
	c.PlotDir = filepath.Join(dir, "plots")
	c.PlotFormat = "svg"
	c.NoColor = true
	return c
}

func newTestRunner(t *testing.T, c *config.Config) (*Runner, *bytes.Buffer, *log.TestLogger) {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	var out bytes.Buffer
	r, err := NewRunner(c, &out, WithLogger(logger), WithRunID("run-1"))
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r, &out, logger
}

func TestRunEndToEnd(t *testing.T) {
	c := testConfig(t)
	c.WeightsOut = filepath.Join(t.TempDir(), "weights.json")
	r, out, logger := newTestRunner(t, c)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v\n%s", err, out)
	}
	if res.Stopped != "" || res.RunID != "run-1" {
		t.Errorf("Stopped = %q, RunID = %q", res.Stopped, res.RunID)
	}

	if rows, cols := res.Frame.Shape(); rows != 10 || cols != 4 {
		t.Errorf("loaded shape = (%d,%d), want (10,4)", rows, cols)
	}
	if len(res.Imputed) != 1 || res.Imputed[0].Column != "age" || res.Imputed[0].Filled != 1 || res.Imputed[0].Float != 35 {
		t.Errorf("Imputed = %+v, want age filled once with median 35", res.Imputed)
	}
	if !reflect.DeepEqual(res.Encoded, []string{"sexo"}) {
		t.Errorf("Encoded = %v", res.Encoded)
	}
	if got := res.Prepared.Names(); !reflect.DeepEqual(got, []string{"age", "target", "sexo_M"}) {
		t.Errorf("Prepared columns = %v", got)
	}
	if len(res.Dropped) != 0 {
		t.Errorf("Dropped = %v, want none", res.Dropped)
	}

	nTrain, _ := res.Split.XTrain.Shape()
	nTest, _ := res.Split.XTest.Shape()
	if nTrain != 7 || nTest != 3 {
		t.Errorf("split = %d/%d, want 7/3", nTrain, nTest)
	}

	ev := res.Evaluation
	if ev == nil {
		t.Fatal("Evaluation is nil")
	}
	for name, v := range map[string]float64{"MAE": ev.MAE, "R2": ev.R2, "RMSE": ev.RMSE} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s = %v, want finite", name, v)
		}
	}
	if ev.MAE < 0 || len(ev.Predictions) != 3 {
		t.Errorf("MAE = %v, predictions = %v", ev.MAE, ev.Predictions)
	}

	if len(res.Plots) != 4 {
		t.Errorf("Plots = %v, want 3 raw plots and predicted vs actual", res.Plots)
	}
	for _, p := range res.Plots {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("plot %s: %v", p, err)
		}
	}

	w, err := model.LoadWeights(c.WeightsOut)
	if err != nil {
		t.Fatalf("LoadWeights() error = %v", err)
	}
	if !reflect.DeepEqual(w.Features, []string{"age", "sexo_M"}) || w.Metadata["run_id"] != "run-1" {
		t.Errorf("weights = %+v", w)
	}

	text := out.String()
	for _, want := range []string{"data loaded: 10 records and 4 columns", "warning: column 'observacao' not found", "7 samples to train on, 3 samples to test with", "explains"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(text, "skipped") {
		t.Error("no stage should be skipped")
	}
	if !logger.ContainsField(log.EstimatorIDKey, "run-1") || !logger.ContainsField(log.OperationKey, log.OperationScore) {
		t.Error("expected run id and evaluation records in the log")
	}
}

func TestRunStopsAtFailedStage(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*config.Config)
		wantStopped string
		wantSkipped int
		check       func(error) bool
		wantCode    string
	}{
		{
			name:        "missing file",
			mutate:      func(c *config.Config) { c.DataPath = filepath.Join(t.TempDir(), "absent.csv") },
			wantStopped: StageLoad,
			wantSkipped: 10,
			check:       func(err error) bool { return errors.Is(err, errors.ErrFileNotFound) },
			wantCode:    log.ErrorFileNotFound,
		},
		{
			name:        "missing target",
			mutate:      func(c *config.Config) { c.Target = "price" },
			wantStopped: StageSplit,
			wantSkipped: 3,
			check: func(err error) bool {
				var nf *errors.ColumnNotFoundError
				return errors.As(err, &nf)
			},
			wantCode: log.ErrorColumnNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(t)
			tt.mutate(c)
			r, out, logger := newTestRunner(t, c)

			res, err := r.Run(context.Background())
			if err == nil || !tt.check(err) {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Stopped != tt.wantStopped {
				t.Errorf("Stopped = %q, want %q", res.Stopped, tt.wantStopped)
			}
			if got := strings.Count(out.String(), "skipped"); got != tt.wantSkipped {
				t.Errorf("skipped lines = %d, want %d\n%s", got, tt.wantSkipped, out)
			}
			if res.Model != nil || res.Evaluation != nil {
				t.Error("no model should be produced")
			}
			if !logger.ContainsField(log.ErrorCodeKey, tt.wantCode) {
				t.Errorf("log has no %s=%s", log.ErrorCodeKey, tt.wantCode)
			}
		})
	}
}

func TestRunUnknownEncodingContinues(t *testing.T) {
	c := testConfig(t)
	c.EncodingMethod = "binary"
	c.PlotsEnabled = false
	r, out, _ := newTestRunner(t, c)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "'binary' is not recognised") {
		t.Errorf("output does not report the unknown method:\n%s", out)
	}
	if !reflect.DeepEqual(res.Dropped, []string{"sexo"}) {
		t.Errorf("Dropped = %v, want [sexo]", res.Dropped)
	}
	if got := res.Prepared.Names(); !reflect.DeepEqual(got, []string{"age", "target"}) {
		t.Errorf("Prepared columns = %v", got)
	}
	if len(res.Plots) != 0 {
		t.Errorf("Plots = %v with plots disabled", res.Plots)
	}
}

func TestRunWithScaler(t *testing.T) {
	for _, scaler := range []string{"standard", "minmax"} {
		t.Run(scaler, func(t *testing.T) {
			c := testConfig(t)
			c.Scaler = scaler
			c.PlotsEnabled = false
			r, out, _ := newTestRunner(t, c)

			res, err := r.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !strings.Contains(out.String(), "scaled with "+scaler) {
				t.Errorf("output does not mention scaling:\n%s", out)
			}
			if math.IsNaN(res.Evaluation.MAE) {
				t.Error("MAE is NaN")
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	r, out, _ := newTestRunner(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if res.Stopped != StageLoad || res.Frame != nil {
		t.Errorf("Stopped = %q, Frame = %v", res.Stopped, res.Frame)
	}
	if !strings.Contains(out.String(), "skipped") {
		t.Error("remaining stages should be reported as skipped")
	}
}

func TestExplore(t *testing.T) {
	r, out, _ := newTestRunner(t, testConfig(t))

	res, err := r.Explore(context.Background())
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if res.Frame == nil || res.Split != nil || res.Model != nil {
		t.Errorf("Explore should only load: %+v", res)
	}
	if len(res.Plots) != 3 {
		t.Errorf("Plots = %v, want 3", res.Plots)
	}
	text := out.String()
	for _, want := range []string{"first 5 rows", "missing values", "summary of numeric columns"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestVisualizationFailureDoesNotStop(t *testing.T) {
	c := testConfig(t)
	c.HistogramColumn = "sexo"
	c.BarColumn = "renda"
	r, out, _ := newTestRunner(t, c)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Plots) != 2 {
		t.Errorf("Plots = %v, want scatter and predicted vs actual", res.Plots)
	}
	if strings.Count(out.String(), "not drawn") != 2 {
		t.Errorf("expected two plot failures in output:\n%s", out)
	}
}

func TestPlotPanicIsReported(t *testing.T) {
	r, out, logger := newTestRunner(t, testConfig(t))
	res := &Result{}

	r.plot(res, "histogram", func() (string, error) { panic("canvas too small") })
	if len(res.Plots) != 0 {
		t.Errorf("Plots = %v, want none", res.Plots)
	}
	if !strings.Contains(out.String(), "histogram not drawn") {
		t.Errorf("panic not reported:\n%s", out)
	}
	if !logger.ContainsMessage("plot failed") {
		t.Error("plot failure was not logged with its error")
	}

	r.plot(res, "bar chart", func() (string, error) { return "bar.svg", nil })
	if len(res.Plots) != 1 || res.Plots[0] != "bar.svg" {
		t.Errorf("Plots = %v, want [bar.svg]", res.Plots)
	}
}

func TestRunSingleTestRow(t *testing.T) {
	c := testConfig(t)
	c.TestSize = 0.1
	c.PlotsEnabled = false
	r, out, _ := newTestRunner(t, c)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !math.IsNaN(res.Evaluation.R2) || res.Evaluation.R2Forced {
		t.Errorf("R2 = %v (forced %v), want NaN", res.Evaluation.R2, res.Evaluation.R2Forced)
	}
	if !strings.Contains(out.String(), "R² is undefined with fewer than two test rows") {
		t.Errorf("missing undefined R² notice:\n%s", out)
	}
	if strings.Contains(out.String(), "the model explains") {
		t.Errorf("explained variance printed for NaN R²:\n%s", out)
	}
}

func TestNewRunnerValidates(t *testing.T) {
	c := testConfig(t)
	c.TestSize = 1.5
	_, err := NewRunner(c, nil)
	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.ParamName != "test_size" {
		t.Errorf("NewRunner() error = %v, want test_size ValidationError", err)
	}
}

type constPredictor struct{ v float64 }

func (p constPredictor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	r, _ := X.Dims()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, p.v)
	}
	return out, nil
}

func TestEvaluate(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	ev, err := Evaluate(constPredictor{v: 2}, X, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ev.MAE-2.0/3.0) > 1e-12 || ev.R2 != 0 {
		t.Errorf("MAE = %v, R2 = %v", ev.MAE, ev.R2)
	}
	if !reflect.DeepEqual(ev.Actual, []float64{1, 2, 3}) {
		t.Errorf("Actual = %v", ev.Actual)
	}

	if _, err := Evaluate(nil, X, y); err == nil {
		t.Error("nil model should fail")
	}
	if _, err := Evaluate(constPredictor{}, X, nil); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("missing targets: error = %v", err)
	}
}
