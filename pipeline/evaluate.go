package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabreg/core/model"
	"github.com/YuminosukeSato/tabreg/metrics"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

// Evaluation holds the test-set metrics of a fitted model.
type Evaluation struct {
	metrics.Report
	Predictions []float64 `json:"-"`
	Actual      []float64 `json:"-"`
}

// Evaluate predicts XTest and compares the predictions with yTest.
func Evaluate(m model.Predictor, XTest mat.Matrix, yTest *mat.VecDense) (*Evaluation, error) {
	if m == nil {
		return nil, errors.NewValueError("pipeline.Evaluate", "model is nil")
	}
	if XTest == nil || yTest == nil {
		return nil, errors.NewModelError("pipeline.Evaluate", "empty test data", errors.ErrEmptyData)
	}
	if r, _ := XTest.Dims(); r == 0 || yTest.Len() == 0 {
		return nil, errors.NewModelError("pipeline.Evaluate", "empty test data", errors.ErrEmptyData)
	}

	pred, err := m.Predict(XTest)
	if err != nil {
		return nil, errors.Wrap(err, "predict test set")
	}
	report, err := metrics.Regression(yTest, pred)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Report:      report,
		Predictions: mat.Col(nil, 0, pred),
		Actual:      mat.Col(nil, 0, yTest),
	}, nil
}
