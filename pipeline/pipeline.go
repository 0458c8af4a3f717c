// Package pipeline は読み込みから評価までの一連の段階を実行します。
//
// Runner は各段階の進行を out に書き出し、構造化ログを logger に送ります。
// ある段階が失敗すると以降の段階は "skipped" と表示され、Run はエラーを返します。
// 探索と可視化の失敗は報告のみで、処理は止まりません。
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabreg/config"
	"github.com/YuminosukeSato/tabreg/core/model"
	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/explore"
	"github.com/YuminosukeSato/tabreg/linear"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
	"github.com/YuminosukeSato/tabreg/pkg/log"
	"github.com/YuminosukeSato/tabreg/preprocessing"
	"github.com/YuminosukeSato/tabreg/visualize"
)

// Stage names, in execution order.
const (
	StageLoad      = "load"
	StageExplore   = "explore"
	StageVisualize = "visualize"
	StageDropID    = "drop id"
	StageImpute    = "impute"
	StageEncode    = "encode"
	StageSelect    = "drop non-numeric"
	StageSplit     = "split"
	StageScale     = "scale"
	StageFit       = "fit"
	StageEvaluate  = "evaluate"
)

// Result collects what each stage produced. Fields of stages that did not
// run stay zero.
type Result struct {
	RunID string

	// Frame is the table as loaded.
	Frame *dataframe.Frame
	// Prepared is the numeric table handed to the split.
	Prepared *dataframe.Frame

	Imputed []preprocessing.ImputeResult
	Encoded []string
	Dropped []string

	Split      *preprocessing.Split
	Model      *linear.LinearRegression
	Evaluation *Evaluation
	Plots      []string

	// Stopped names the stage that failed, empty when the run completed.
	Stopped string
}

// Runner executes the pipeline described by a Config.
type Runner struct {
	cfg      *config.Config
	out      io.Writer
	logger   log.Logger
	runID    string
	renderer *visualize.Renderer
	say      *narrator
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger replaces the component logger.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner validates cfg and creates a Runner narrating to out.
func NewRunner(cfg *config.Config, out io.Writer, opts ...Option) (*Runner, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	r := &Runner{
		cfg:    cfg,
		out:    out,
		logger: log.GetLoggerWithName("pipeline"),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(log.EstimatorIDKey, r.runID)
	r.say = newNarrator(out, cfg.NoColor)

	if cfg.PlotsEnabled {
		renderer, err := visualize.NewRenderer(cfg.PlotDir, cfg.PlotFormat)
		if err != nil {
			return nil, err
		}
		r.renderer = renderer
	}
	return r, nil
}

// RunID returns the identifier logged with every record of this runner.
func (r *Runner) RunID() string { return r.runID }

// state は段階の間で受け渡す中間結果
type state struct {
	res *Result

	work *dataframe.Frame

	XTrain, XTest mat.Matrix
	yTrain, yTest *mat.VecDense
}

type stage struct {
	name  string
	phase string
	op    string
	run   func(ctx context.Context, st *state) error
}

func (r *Runner) exploreStages() []stage {
	return []stage{
		{StageLoad, log.PhaseIngest, log.OperationLoad, r.load},
		{StageExplore, log.PhaseExploration, log.OperationExplore, r.explore},
		{StageVisualize, log.PhaseExploration, log.OperationVisualize, r.visualizeRaw},
	}
}

func (r *Runner) stages() []stage {
	return append(r.exploreStages(),
		stage{StageDropID, log.PhasePreprocessing, log.OperationSelect, r.dropID},
		stage{StageImpute, log.PhasePreprocessing, log.OperationImpute, r.impute},
		stage{StageEncode, log.PhasePreprocessing, log.OperationEncode, r.encode},
		stage{StageSelect, log.PhasePreprocessing, log.OperationSelect, r.dropNonNumeric},
		stage{StageSplit, log.PhasePreprocessing, log.OperationSplit, r.split},
		stage{StageScale, log.PhasePreprocessing, log.OperationScale, r.scale},
		stage{StageFit, log.PhaseTraining, log.OperationFit, r.fit},
		stage{StageEvaluate, log.PhaseEvaluation, log.OperationScore, r.evaluate},
	)
}

// Run executes every stage from loading to evaluation.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.execute(ctx, r.stages())
}

// Explore loads the data, prints the exploratory analysis and draws the raw-data plots.
func (r *Runner) Explore(ctx context.Context) (*Result, error) {
	return r.execute(ctx, r.exploreStages())
}

func (r *Runner) execute(ctx context.Context, stages []stage) (*Result, error) {
	st := &state{res: &Result{RunID: r.runID}}
	r.logger.Info("pipeline started", log.PathKey, r.cfg.DataPath, log.RandomSeedKey, r.cfg.RandomState)
	start := time.Now()

	for i, s := range stages {
		if err := ctx.Err(); err != nil {
			r.stop(st.res, s, stages[i+1:], errors.Wrap(err, "pipeline cancelled"))
			return st.res, errors.Wrapf(err, "pipeline cancelled before %s", s.name)
		}

		stageStart := time.Now()
		err := s.run(ctx, st)
		logger := r.logger.With(log.PhaseKey, s.phase, log.OperationKey, s.op)
		if err != nil {
			r.stop(st.res, s, stages[i+1:], err)
			return st.res, errors.Wrapf(err, "stage %s", s.name)
		}
		logger.Debug("stage finished", "stage", s.name, log.DurationMsKey, time.Since(stageStart).Milliseconds())
	}

	r.logger.Info("pipeline finished", log.DurationMsKey, time.Since(start).Milliseconds())
	return st.res, nil
}

// stop は失敗した段階を記録し、残りの段階を skipped として表示する
func (r *Runner) stop(res *Result, failed stage, rest []stage, err error) {
	res.Stopped = failed.name
	fields := []any{err, log.PhaseKey, failed.phase, log.OperationKey, failed.op, "stage", failed.name}
	if code := errorCode(err); code != "" {
		fields = append(fields, log.ErrorCodeKey, code)
	}
	r.logger.Error("stage failed", fields...)
	r.say.fail("%s failed: %v", failed.name, err)
	for _, s := range rest {
		r.say.skipped(s.name)
	}
}

func (r *Runner) load(_ context.Context, st *state) error {
	f, err := dataframe.Load(r.cfg.DataPath, r.cfg.LoadOptions())
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) {
			r.say.fail("could not find the file at %s, check that it is in the right place", r.cfg.DataPath)
		}
		return err
	}
	rows, cols := f.Shape()
	st.res.Frame = f
	st.work = f
	r.say.ok("data loaded: %d records and %d columns", rows, cols)
	r.logger.Info("data loaded", log.PathKey, r.cfg.DataPath, log.SamplesKey, rows, log.FeaturesKey, cols)
	return nil
}

// explore prints the analysis; its failures are reported but do not stop the run.
func (r *Runner) explore(_ context.Context, st *state) error {
	f := st.res.Frame
	report := func(what string, err error) {
		if err != nil {
			r.say.warn("%s unavailable: %v", what, err)
			r.logger.Warn("exploration step failed", err, "step", what)
		}
	}

	r.say.section("first and last records")
	report("preview", explore.Preview(r.out, f, r.cfg.PreviewRows))

	r.say.section("column types and missing data")
	info, err := explore.Info(f)
	if err == nil {
		err = explore.RenderInfo(r.out, info)
	}
	report("info", err)

	r.say.section("summary of numeric columns")
	summaries, err := explore.Describe(f)
	switch {
	case err != nil:
		report("describe", err)
	case len(summaries) == 0:
		r.say.printf("no numeric column to summarize")
	default:
		report("describe", explore.RenderDescribe(r.out, summaries))
	}

	r.say.section("missing values")
	missing, err := explore.MissingCounts(f)
	if err == nil {
		err = explore.RenderMissing(r.out, missing)
		r.logger.Debug("missing values counted", log.MissingKey, missing.Total)
	}
	report("missing counts", err)

	if len(r.cfg.EDAColumns) > 0 {
		r.say.section("categories of selected columns")
		skipped, err := explore.UniqueValues(r.out, f, r.cfg.EDAColumns)
		report("value counts", err)
		if len(skipped) > 0 {
			r.logger.Warn("columns not found for value counts", log.ColumnsKey, skipped)
		}
	}
	return nil
}

// visualizeRaw draws the configured plots; failures are reported only.
func (r *Runner) visualizeRaw(_ context.Context, st *state) error {
	if r.renderer == nil {
		r.say.printf("plots disabled")
		return nil
	}
	r.say.section("plots")
	f := st.res.Frame
	if c := r.cfg.HistogramColumn; c != "" {
		r.plot(st.res, "histogram of "+c, func() (string, error) { return r.renderer.Histogram(f, c, r.cfg.Bins) })
	}
	if c := r.cfg.BarColumn; c != "" {
		r.plot(st.res, "bar chart of "+c, func() (string, error) { return r.renderer.Bar(f, c) })
	}
	if x, y := r.cfg.ScatterX, r.cfg.ScatterY; x != "" && y != "" {
		r.plot(st.res, fmt.Sprintf("scatter of %s vs %s", y, x), func() (string, error) { return r.renderer.Scatter(f, x, y) })
	}
	return nil
}

func (r *Runner) plot(res *Result, what string, draw func() (string, error)) {
	var path string
	err := errors.SafeExecute("visualize", func() error {
		var err error
		path, err = draw()
		return err
	})
	if err != nil {
		r.say.warn("%s not drawn: %v", what, err)
		r.logger.Warn("plot failed", err, log.OperationKey, log.OperationVisualize)
		return
	}
	res.Plots = append(res.Plots, path)
	r.say.ok("%s written to %s", what, path)
}

func (r *Runner) dropID(_ context.Context, st *state) error {
	id := r.cfg.IDColumn
	if id == "" || !st.work.Has(id) {
		return nil
	}
	st.work = st.work.Drop(id)
	r.say.ok("identifier column '%s' removed", id)
	return nil
}

func (r *Runner) impute(_ context.Context, st *state) error {
	r.say.section("filling missing values")
	im := preprocessing.NewSimpleImputer(
		preprocessing.Strategy(r.cfg.NumericStrategy),
		preprocessing.Strategy(r.cfg.CategoricalStrategy),
	)
	im.FillValue = r.cfg.FillValue
	out, results, err := im.Apply(st.work)
	if err != nil {
		return err
	}
	st.work = out
	st.res.Imputed = results

	if len(results) == 0 {
		r.say.printf("no missing values to fill")
	}
	for _, res := range results {
		r.say.ok("%s: %d missing filled with %s (%s)", res.Column, res.Filled, res.Value(), res.Strategy)
	}
	for _, c := range im.Skipped {
		r.say.warn("%s is entirely missing and was left as is", c)
	}
	r.logger.Info("missing values filled", log.ColumnsKey, len(results))
	return nil
}

// encode narrates an unknown method and continues with the frame unchanged.
func (r *Runner) encode(_ context.Context, st *state) error {
	method := r.cfg.EncodingMethod
	r.say.section("encoding categories (method: " + method + ")")
	out, encoded, err := preprocessing.Encode(st.work, r.cfg.EncodeColumns, method)
	if errors.Is(err, preprocessing.ErrUnknownEncoding) {
		r.say.warn("encoding method '%s' is not recognised, use 'label' or 'onehot'", method)
		r.logger.Warn("unknown encoding method", err, "method", method)
		return nil
	}
	if err != nil {
		return err
	}
	st.work = out
	st.res.Encoded = encoded

	if len(encoded) == 0 {
		r.say.printf("none of the requested columns %v was found", r.cfg.EncodeColumns)
		return nil
	}
	r.say.ok("columns %s encoded", strings.Join(encoded, ", "))
	_, cols := out.Shape()
	r.logger.Info("categories encoded", log.ColumnsKey, encoded, log.FeaturesKey, cols)
	return nil
}

func (r *Runner) dropNonNumeric(_ context.Context, st *state) error {
	out, dropped, err := preprocessing.DropNonNumeric(st.work, r.cfg.Target)
	if err != nil {
		return err
	}
	st.work = out
	st.res.Dropped = dropped
	st.res.Prepared = out
	if len(dropped) > 0 {
		r.say.ok("text columns removed before training: %s", strings.Join(dropped, ", "))
	} else {
		r.say.printf("every column except the target is numeric")
	}
	return nil
}

func (r *Runner) split(_ context.Context, st *state) error {
	r.say.section("train/test split")
	sp, err := preprocessing.TrainTestSplit(st.work, r.cfg.Target, preprocessing.SplitOptions{
		TestSize:    r.cfg.TestSize,
		RandomState: r.cfg.RandomState,
		Shuffle:     r.cfg.Shuffle,
	})
	if err != nil {
		return err
	}
	st.res.Split = sp
	nTrain, nFeatures := sp.XTrain.Shape()
	nTest, _ := sp.XTest.Shape()
	r.say.ok("%d samples to train on, %d samples to test with", nTrain, nTest)
	r.logger.Info("data split", log.SamplesKey, nTrain+nTest, log.FeaturesKey, nFeatures, "test_samples", nTest)
	return nil
}

// scale builds the model matrices and applies the configured scaler to them.
func (r *Runner) scale(_ context.Context, st *state) error {
	sp := st.res.Split
	XTrain, err := sp.XTrain.Matrix()
	if err != nil {
		return err
	}
	XTest, err := sp.XTest.Matrix()
	if err != nil {
		return err
	}
	if st.yTrain, err = sp.YTrain.Vector(); err != nil {
		return err
	}
	if st.yTest, err = sp.YTest.Vector(); err != nil {
		return err
	}
	st.XTrain, st.XTest = XTrain, XTest

	scaler, err := preprocessing.NewScaler(r.cfg.Scaler)
	if err != nil || scaler == nil {
		return err
	}
	// 学習データだけで統計を学習する
	if st.XTrain, err = scaler.FitTransform(XTrain); err != nil {
		return err
	}
	if st.XTest, err = scaler.Transform(XTest); err != nil {
		return err
	}
	r.say.ok("features scaled with %s", r.cfg.Scaler)
	return nil
}

func (r *Runner) fit(_ context.Context, st *state) error {
	r.say.section("training the linear regression")
	lr := linear.NewLinearRegression(
		linear.WithFitIntercept(r.cfg.FitIntercept),
		linear.WithFeatureNames(st.res.Split.FeatureNames()...),
	)
	if err := lr.Fit(st.XTrain, st.yTrain); err != nil {
		r.say.printf("this can happen with unexpected values or formats in the data")
		return err
	}
	st.res.Model = lr
	r.say.ok("the model learned from the data")
	r.say.printf("%s", lr)
	r.logger.Info("model fitted", log.ModelNameKey, "LinearRegression", log.RankKey, lr.Rank())

	if path := r.cfg.WeightsOut; path != "" {
		w, err := lr.Weights()
		if err != nil {
			return err
		}
		w.Metadata["run_id"] = r.runID
		if err := model.SaveWeights(w, path); err != nil {
			return err
		}
		r.say.ok("weights saved to %s", path)
	}
	return nil
}

func (r *Runner) evaluate(_ context.Context, st *state) error {
	r.say.section("evaluating on unseen data")
	ev, err := Evaluate(st.res.Model, st.XTest, st.yTest)
	if err != nil {
		return err
	}
	st.res.Evaluation = ev
	r.say.printf("mean absolute difference between prediction and actual value: %.2f", ev.MAE)
	switch {
	case math.IsNaN(ev.R2):
		r.say.warn("R² is undefined with fewer than two test rows")
	case ev.R2Forced:
		r.say.warn("the test targets are constant, R² reported as %.0f", ev.R2)
		fallthrough
	default:
		r.say.printf("the model explains %.2f%% of the variation in the data (closer to 100%% is better)", ev.R2*100)
	}
	r.logger.Info("model evaluated", log.MAEKey, ev.MAE, log.R2ScoreKey, ev.R2, "rmse", ev.RMSE)

	if r.renderer != nil {
		r.plot(st.res, "predicted vs actual", func() (string, error) {
			return r.renderer.PredictedVsActual(ev.Actual, ev.Predictions)
		})
	}
	return nil
}
