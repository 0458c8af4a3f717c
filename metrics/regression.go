// Package metrics は回帰モデルの評価指標を提供します。
//
// すべての関数は同じ長さの *mat.VecDense を受け取り、空の入力には ValueError、
// 長さの不一致には DimensionError を返します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// residuals は yTrue - yPred
func residuals(yTrue, yPred *mat.VecDense) []float64 {
	var d mat.VecDense
	d.SubVec(yTrue, yPred)
	return d.RawVector().Data
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	d := residuals(yTrue, yPred)
	return floats.Dot(d, d) / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
//
//	MAE = (1/n) * Σ|yTrue - yPred|
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(residuals(yTrue, yPred), 1) / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
//
//	R² = 1 - Σ(yTrue - yPred)² / Σ(yTrue - mean(yTrue))²
//
// yTrue が定数のときは分母が0になり、ErrZeroVariance を返す。
// その場合の扱いは R2ScoreForceFinite を参照。
// サンプルが1つだけのときは定義されないため、UndefinedMetricWarning を発行して NaN を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if n < 2 {
		errors.Warn(errors.NewUndefinedMetricWarning("R2Score", "less than two samples", math.NaN()))
		return math.NaN(), nil
	}
	t := yTrue.RawVector().Data
	mean := stat.Mean(t, nil)
	var tss float64
	for _, v := range t {
		tss += (v - mean) * (v - mean)
	}
	d := residuals(yTrue, yPred)
	rss := floats.Dot(d, d)

	if tss == 0 {
		return 0, errors.Wrapf(errors.ErrZeroVariance, "R2Score: total sum of squares is zero (residual sum %g)", rss)
	}
	return 1 - rss/tss, nil
}

// R2ScoreForceFinite は R2Score と同じだが、yTrue が定数の場合に
// 完全一致なら 1.0、それ以外は 0.0 を返し、UndefinedMetricWarning を発行する。
// 2番目の戻り値はこの置き換えが起きたかどうか。
func R2ScoreForceFinite(yTrue, yPred *mat.VecDense) (float64, bool, error) {
	r2, err := R2Score(yTrue, yPred)
	if err == nil {
		return r2, false, nil
	}
	if !errors.Is(err, errors.ErrZeroVariance) {
		return 0, false, err
	}

	result := 0.0
	if d := residuals(yTrue, yPred); floats.Dot(d, d) == 0 {
		result = 1.0
	}
	errors.Warn(errors.NewUndefinedMetricWarning("R2Score", "constant target values in y_true", result))
	return result, true, nil
}

// MAPE は平均絶対パーセンテージ誤差（%）を計算する。yTrue が0の要素は除外する。
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	valid := 0
	for i := 0; i < n; i++ {
		v := yTrue.AtVec(i)
		if v == 0 {
			continue
		}
		sum += math.Abs(v-yPred.AtVec(i)) / math.Abs(v)
		valid++
	}
	if valid == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return sum / float64(valid) * 100, nil
}

// ExplainedVarianceScore は 1 - Var(yTrue - yPred) / Var(yTrue) を計算する
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("ExplainedVarianceScore", yTrue, yPred); err != nil {
		return 0, err
	}
	_, varTrue := stat.PopMeanVariance(yTrue.RawVector().Data, nil)
	if varTrue == 0 {
		return 0, errors.Wrap(errors.ErrZeroVariance, "ExplainedVarianceScore")
	}
	_, varDiff := stat.PopMeanVariance(residuals(yTrue, yPred), nil)
	return 1 - varDiff/varTrue, nil
}

// Report は回帰指標のまとめ
type Report struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	// R2Forced は R2 が定数ターゲットのため置き換えられたことを示す
	R2Forced bool `json:"r2_forced,omitempty"`
}

// Regression computes every metric of Report. R2 follows R2ScoreForceFinite.
func Regression(yTrue, yPred *mat.VecDense) (Report, error) {
	var r Report
	var err error
	if r.MAE, err = MAE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if r.MSE, err = MSE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	r.RMSE = math.Sqrt(r.MSE)
	if r.R2, r.R2Forced, err = R2ScoreForceFinite(yTrue, yPred); err != nil {
		return Report{}, err
	}
	return r, nil
}
