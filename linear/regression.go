package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/tabreg/core/model"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
	"github.com/YuminosukeSato/tabreg/pkg/log"
)

// modelType は ModelWeights に記録されるモデル名
const modelType = "LinearRegression"

// LinearRegression は通常の最小二乗法による線形回帰モデル
//
// 係数は特異値分解（gonum mat.SVD）で解くため、列が線形従属でも
// 最小ノルム解が得られます。
//
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(XTrain, yTrain); err != nil {
//		return err
//	}
//	pred, err := lr.Predict(XTest)
type LinearRegression struct {
	state *model.StateManager

	fitIntercept bool
	rcond        float64

	coef      *mat.VecDense
	intercept float64

	// rank と singular は最後の Fit の診断情報
	rank     int
	singular []float64

	features []string
	nSamples int

	logger log.Logger
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
		logger:       log.GetLoggerWithName(modelType),
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
//
// y は n×1 の行列（*mat.VecDense を含む）でなければならない。
// 切片を推定する場合は X と y を中心化してから解く。
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	ry, cy := y.Dims()
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", X, r, c); err != nil {
		return err
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", y, ry, 1); err != nil {
		return err
	}

	A := mat.DenseCopyOf(X)
	b := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		b.SetVec(i, y.At(i, 0))
	}

	xMean := make([]float64, c)
	var yMean float64
	if lr.fitIntercept {
		col := make([]float64, r)
		for j := 0; j < c; j++ {
			mat.Col(col, j, A)
			xMean[j] = stat.Mean(col, nil)
		}
		yMean = stat.Mean(b.RawVector().Data, nil)
		A.Apply(func(_, j int, v float64) float64 { return v - xMean[j] }, A)
		for i := 0; i < r; i++ {
			b.SetVec(i, b.AtVec(i)-yMean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		return errors.NewModelError("LinearRegression.Fit", "SVD factorization failed", errors.ErrSingularMatrix)
	}
	rcond := lr.rcond
	if rcond <= 0 {
		// lstsq と同じ既定値
		rcond = floatEps * float64(max(r, c))
	}
	rank := svd.Rank(rcond)

	coef := mat.NewVecDense(c, nil)
	if rank > 0 {
		coef.Reset()
		svd.SolveVecTo(coef, b, rank)
	}
	if err := errors.CheckNumericalStability("LinearRegression.Fit", coef.RawVector().Data, 0); err != nil {
		return err
	}

	lr.coef = coef
	lr.intercept = 0
	if lr.fitIntercept {
		lr.intercept = yMean - floats.Dot(xMean, coef.RawVector().Data)
	}
	lr.rank = rank
	lr.singular = svd.Values(nil)
	lr.nSamples = r
	if len(lr.features) != c {
		lr.features = nil
	}

	lr.state.SetDimensions(c, r)
	lr.state.SetFitted()

	if rank < c {
		lr.logger.Warn("design matrix is rank deficient, returning minimum-norm solution",
			log.RankKey, rank, log.FeaturesKey, c)
	}
	lr.logger.Debug("model fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.RankKey, rank,
	)
	return nil
}

// floatEps は float64 の計算機イプシロン
var floatEps = math.Nextafter(1, 2) - 1

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := lr.state.RequireFitted(modelType, "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if nf, _ := lr.state.GetDimensions(); c != nf {
		return nil, errors.NewDimensionError("LinearRegression.Predict", nf, c, 1)
	}
	if r == 0 {
		return nil, errors.NewModelError("LinearRegression.Predict", "empty data", errors.ErrEmptyData)
	}

	// y = X * coef + intercept
	pred := mat.NewVecDense(r, nil)
	pred.MulVec(X, lr.coef)
	for i := 0; i < r; i++ {
		pred.SetVec(i, pred.AtVec(i)+lr.intercept)
	}
	return pred, nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()
	if r != pred.Len() {
		return 0, errors.NewDimensionError("LinearRegression.Score", pred.Len(), r, 0)
	}

	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		d := y.At(i, 0) - yMean
		e := y.At(i, 0) - pred.AtVec(i)
		tss += d * d
		rss += e * e
	}
	if tss == 0 {
		return 0, errors.Wrap(errors.ErrZeroVariance, "LinearRegression.Score")
	}
	return 1 - rss/tss, nil
}

// Coefficients は学習された係数のコピーを返す。未学習なら nil。
func (lr *LinearRegression) Coefficients() []float64 {
	if !lr.state.IsFitted() {
		return nil
	}
	out := make([]float64, lr.coef.Len())
	copy(out, lr.coef.RawVector().Data)
	return out
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept
}

// Rank returns the effective rank of the (centered) design matrix.
func (lr *LinearRegression) Rank() int { return lr.rank }

// SingularValues returns the singular values of the design matrix, largest first.
func (lr *LinearRegression) SingularValues() []float64 {
	return append([]float64(nil), lr.singular...)
}

// SetFeatureNames records column names for Weights and String. The count
// must match the number of columns passed to Fit.
func (lr *LinearRegression) SetFeatureNames(names []string) {
	lr.features = append([]string(nil), names...)
}

// FeatureNames returns the recorded feature names, if any.
func (lr *LinearRegression) FeatureNames() []string {
	return append([]string(nil), lr.features...)
}

// GetParams returns the hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.fitIntercept,
		"rcond":         lr.rcond,
	}
}

// Weights は学習結果を ModelWeights として返す
func (lr *LinearRegression) Weights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted(modelType, "Weights"); err != nil {
		return nil, err
	}
	return &model.ModelWeights{
		ModelType:       modelType,
		Version:         model.WeightsVersion,
		Coefficients:    lr.Coefficients(),
		Intercept:       lr.intercept,
		Features:        lr.FeatureNames(),
		Hyperparameters: lr.GetParams(),
		Metadata: map[string]interface{}{
			"n_samples": lr.nSamples,
			"rank":      lr.rank,
		},
		IsFitted: true,
	}, nil
}

func (lr *LinearRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.fitIntercept)
	}
	w, err := lr.Weights()
	if err != nil {
		return "LinearRegression(<invalid>)"
	}
	return "LinearRegression: y = " + w.String()
}

var _ model.Regressor = (*LinearRegression)(nil)
