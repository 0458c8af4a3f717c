// Package preprocessing は欠損値補完、カテゴリ変数のエンコーディング、
// 列の選択、学習/テスト分割、特徴量スケーリングを提供します。
//
// 表（dataframe.Frame）に対する変換は新しい Frame を返し、入力を変更しません。
package preprocessing

import (
	"fmt"
	"math"
	"strconv"

	"github.com/YuminosukeSato/tabreg/core/model"
	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
	"github.com/YuminosukeSato/tabreg/pkg/log"
)

// Strategy is an imputation strategy.
type Strategy string

const (
	StrategyMean         Strategy = "mean"
	StrategyMedian       Strategy = "median"
	StrategyMostFrequent Strategy = "most_frequent"
	StrategyConstant     Strategy = "constant"
)

// DefaultCategoricalFill is used by the constant strategy on categorical
// columns when no FillValue is given.
const DefaultCategoricalFill = "missing"

// Fill is the value learned for one column.
type Fill struct {
	Column   string
	Kind     dataframe.Kind
	Strategy Strategy
	Float    float64
	Str      string
}

// Value returns the fill as display text.
func (f Fill) Value() string {
	if f.Kind == dataframe.Numeric {
		return strconv.FormatFloat(f.Float, 'g', -1, 64)
	}
	return f.Str
}

// ImputeResult describes what Transform changed in one column.
type ImputeResult struct {
	Fill
	Filled int
}

// SimpleImputer replaces missing values column by column with a statistic
// learned from the present values. Numeric and categorical columns use
// separate strategies.
type SimpleImputer struct {
	state *model.StateManager

	NumericStrategy     Strategy
	CategoricalStrategy Strategy
	// FillValue is used by StrategyConstant. Numeric columns parse it as a
	// float; an empty value means 0 for numeric and DefaultCategoricalFill
	// for categorical columns.
	FillValue string

	// Statistics holds the learned fill of every imputable column.
	Statistics map[string]Fill
	// Skipped lists columns that were entirely missing during Fit.
	Skipped []string

	logger log.Logger
}

// NewSimpleImputer creates an imputer with the given strategies.
func NewSimpleImputer(numeric, categorical Strategy) *SimpleImputer {
	return &SimpleImputer{
		state:               model.NewStateManager(),
		NumericStrategy:     numeric,
		CategoricalStrategy: categorical,
		logger:              log.GetLoggerWithName("SimpleImputer"),
	}
}

// NewDefaultImputer uses median for numeric and most_frequent for categorical columns.
func NewDefaultImputer() *SimpleImputer {
	return NewSimpleImputer(StrategyMedian, StrategyMostFrequent)
}

func (im *SimpleImputer) validate() error {
	switch im.NumericStrategy {
	case StrategyMean, StrategyMedian, StrategyMostFrequent, StrategyConstant:
	default:
		return errors.NewValidationError("numeric_strategy", "must be one of mean, median, most_frequent, constant", im.NumericStrategy)
	}
	switch im.CategoricalStrategy {
	case StrategyMostFrequent, StrategyConstant:
	default:
		return errors.NewValidationError("categorical_strategy", "must be one of most_frequent, constant", im.CategoricalStrategy)
	}
	if im.NumericStrategy == StrategyConstant && im.FillValue != "" {
		if _, err := strconv.ParseFloat(im.FillValue, 64); err != nil {
			return errors.NewValidationError("fill_value", "must be numeric for numeric columns", im.FillValue)
		}
	}
	return nil
}

// Fit learns one fill value per column.
func (im *SimpleImputer) Fit(f *dataframe.Frame) error {
	if f == nil {
		return errors.Wrap(errors.ErrNoData, "SimpleImputer.Fit")
	}
	if err := im.validate(); err != nil {
		return err
	}

	im.Statistics = make(map[string]Fill)
	im.Skipped = nil
	for _, c := range f.Columns() {
		fill, ok := im.learn(c)
		if !ok {
			im.Skipped = append(im.Skipped, c.Name)
			im.logger.Warn("column is entirely missing, left as is",
				log.ColumnKey, c.Name, log.OperationKey, log.OperationImpute)
			continue
		}
		im.Statistics[c.Name] = fill
	}

	rows, cols := f.Shape()
	im.state.SetDimensions(cols, rows)
	im.state.SetFitted()
	return nil
}

func (im *SimpleImputer) learn(c *dataframe.Series) (Fill, bool) {
	if c.Kind == dataframe.Numeric {
		fill := Fill{Column: c.Name, Kind: c.Kind, Strategy: im.NumericStrategy}
		switch im.NumericStrategy {
		case StrategyConstant:
			fill.Float, _ = strconv.ParseFloat(im.FillValue, 64)
			if im.FillValue == "" {
				fill.Float = 0
			}
			return fill, true
		case StrategyMean:
			fill.Float = c.Mean()
		case StrategyMedian:
			fill.Float = c.Median()
		case StrategyMostFrequent:
			mode, ok := c.Mode()
			if !ok {
				return fill, false
			}
			fill.Float, _ = strconv.ParseFloat(mode, 64)
		}
		return fill, !math.IsNaN(fill.Float)
	}

	fill := Fill{Column: c.Name, Kind: c.Kind, Strategy: im.CategoricalStrategy}
	if im.CategoricalStrategy == StrategyConstant {
		fill.Str = im.FillValue
		if fill.Str == "" {
			fill.Str = DefaultCategoricalFill
		}
		return fill, true
	}
	mode, ok := c.Mode()
	fill.Str = mode
	return fill, ok
}

// Transform fills missing cells using the learned statistics.
func (im *SimpleImputer) Transform(f *dataframe.Frame) (*dataframe.Frame, error) {
	out, _, err := im.transform(f)
	return out, err
}

// FitTransform fits on f and fills it.
func (im *SimpleImputer) FitTransform(f *dataframe.Frame) (*dataframe.Frame, error) {
	if err := im.Fit(f); err != nil {
		return nil, err
	}
	return im.Transform(f)
}

func (im *SimpleImputer) transform(f *dataframe.Frame) (*dataframe.Frame, []ImputeResult, error) {
	if err := im.state.RequireFitted("SimpleImputer", "Transform"); err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, errors.Wrap(errors.ErrNoData, "SimpleImputer.Transform")
	}

	out := f.Copy()
	var results []ImputeResult
	for _, c := range f.Columns() {
		fill, ok := im.Statistics[c.Name]
		missing := c.NullCount()
		if !ok || missing == 0 {
			continue
		}
		if fill.Kind != c.Kind {
			return nil, nil, errors.NewColumnTypeError("SimpleImputer.Transform", c.Name, fill.Kind.String(), c.Kind.String())
		}

		filled := c.Copy()
		for i := 0; i < filled.Len(); i++ {
			if !filled.IsNull(i) {
				continue
			}
			if filled.Kind == dataframe.Numeric {
				filled.Float[i] = fill.Float
			} else {
				filled.Str[i] = fill.Str
				filled.Valid[i] = true
			}
		}
		var err error
		if out, err = out.With(filled); err != nil {
			return nil, nil, err
		}
		results = append(results, ImputeResult{Fill: fill, Filled: missing})
		im.logger.Debug("imputed column",
			log.ColumnKey, c.Name,
			log.MissingKey, missing,
			"strategy", string(fill.Strategy),
			"value", fill.Value(),
		)
	}
	return out, results, nil
}

// Impute fits a SimpleImputer on f and fills it, returning what was filled
// per column in frame order.
func Impute(f *dataframe.Frame, numeric, categorical Strategy) (*dataframe.Frame, []ImputeResult, error) {
	return NewSimpleImputer(numeric, categorical).Apply(f)
}

// Apply is FitTransform that also reports the filled columns.
func (im *SimpleImputer) Apply(f *dataframe.Frame) (*dataframe.Frame, []ImputeResult, error) {
	if err := im.Fit(f); err != nil {
		return nil, nil, err
	}
	return im.transform(f)
}

func (im *SimpleImputer) String() string {
	return fmt.Sprintf("SimpleImputer(numeric=%s, categorical=%s)", im.NumericStrategy, im.CategoricalStrategy)
}
