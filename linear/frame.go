package linear

import (
	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
	"github.com/YuminosukeSato/tabreg/preprocessing"
)

// FitFrame fits on the numeric columns of X and keeps their names.
func (lr *LinearRegression) FitFrame(X *dataframe.Frame, y *dataframe.Series) error {
	if X == nil || y == nil {
		return errors.Wrap(errors.ErrNoData, "LinearRegression.FitFrame")
	}
	A, err := X.Matrix()
	if err != nil {
		return err
	}
	b, err := y.Vector()
	if err != nil {
		return err
	}
	lr.SetFeatureNames(X.Names())
	return lr.Fit(A, b)
}

// PredictFrame predicts from the columns of X, which must match the fitted
// feature names when they are known.
func (lr *LinearRegression) PredictFrame(X *dataframe.Frame) ([]float64, error) {
	if X == nil {
		return nil, errors.Wrap(errors.ErrNoData, "LinearRegression.PredictFrame")
	}
	names := lr.features
	if len(names) == 0 {
		names = X.Names()
	}
	A, err := X.Matrix(names...)
	if err != nil {
		return nil, err
	}
	pred, err := lr.Predict(A)
	if err != nil {
		return nil, err
	}
	return pred.RawVector().Data, nil
}

// FitFrame fits a new LinearRegression on the training half of split.
func FitFrame(split *preprocessing.Split, opts ...Option) (*LinearRegression, error) {
	if split == nil {
		return nil, errors.Wrap(errors.ErrNoData, "linear.FitFrame")
	}
	lr := NewLinearRegression(opts...)
	if err := lr.FitFrame(split.XTrain, split.YTrain); err != nil {
		return nil, err
	}
	return lr, nil
}
