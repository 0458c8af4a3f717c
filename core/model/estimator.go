// Package model は推定器と変換器が共有するインターフェースと状態管理を提供します。
package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabreg/dataframe"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (*mat.VecDense, error)
}

// Scorer はモデルの決定係数（R²）を計算する
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor は回帰モデルのインターフェース
type Regressor interface {
	Fitter
	Predictor
	Scorer
	Weights() (*ModelWeights, error)
}

// Transformer は行列に対する変換のインターフェース（スケーラーなど）
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// FrameTransformer は表に対する変換のインターフェース（補完、エンコーディング）
type FrameTransformer interface {
	Fit(f *dataframe.Frame) error
	Transform(f *dataframe.Frame) (*dataframe.Frame, error)
	FitTransform(f *dataframe.Frame) (*dataframe.Frame, error)
}

// ParameterGetter is implemented by estimators that expose hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
