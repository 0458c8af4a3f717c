package preprocessing

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/YuminosukeSato/tabreg/core/model"
	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
	"github.com/YuminosukeSato/tabreg/pkg/log"
)

// Encoding methods accepted by Encode.
const (
	EncodingLabel  = "label"
	EncodingOneHot = "onehot"
)

// UnknownLabel replaces missing entries before label encoding.
const UnknownLabel = "unknown"

// ErrUnknownEncoding is returned by Encode for a method other than label or onehot.
var ErrUnknownEncoding = errors.New("unknown encoding method")

// presentColumns returns the names of cols that exist in f, keeping order.
func presentColumns(f *dataframe.Frame, cols []string) []string {
	var out []string
	for _, c := range cols {
		if f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func sortedDistinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// categories returns the distinct present values of s, numeric series in
// numeric order and categorical ones in lexical order.
func categories(s *dataframe.Series) []string {
	var present []string
	for i := 0; i < s.Len(); i++ {
		if !s.IsNull(i) {
			present = append(present, s.String(i))
		}
	}
	cats := sortedDistinct(present)
	if s.Kind == dataframe.Numeric {
		sort.SliceStable(cats, func(i, j int) bool {
			a, _ := strconv.ParseFloat(cats[i], 64)
			b, _ := strconv.ParseFloat(cats[j], 64)
			return a < b
		})
	}
	return cats
}

// LabelEncoder maps each category of a column to its index among the
// sorted distinct values. Missing entries become UnknownLabel first.
type LabelEncoder struct {
	state *model.StateManager

	Columns []string
	// Classes holds the sorted classes per column.
	Classes map[string][]string

	logger log.Logger
}

// NewLabelEncoder creates a LabelEncoder for the given columns.
func NewLabelEncoder(columns ...string) *LabelEncoder {
	return &LabelEncoder{
		state:   model.NewStateManager(),
		Columns: columns,
		logger:  log.GetLoggerWithName("LabelEncoder"),
	}
}

func labels(s *dataframe.Series) []string {
	out := make([]string, s.Len())
	for i := range out {
		if s.IsNull(i) {
			out[i] = UnknownLabel
		} else {
			out[i] = s.String(i)
		}
	}
	return out
}

// Fit learns the classes of every configured column present in f.
func (le *LabelEncoder) Fit(f *dataframe.Frame) error {
	if f == nil {
		return errors.Wrap(errors.ErrNoData, "LabelEncoder.Fit")
	}
	le.Classes = make(map[string][]string)
	for _, name := range presentColumns(f, le.Columns) {
		s, err := f.Column(name)
		if err != nil {
			return err
		}
		le.Classes[name] = sortedDistinct(labels(s))
	}
	rows, _ := f.Shape()
	le.state.SetDimensions(len(le.Classes), rows)
	le.state.SetFitted()
	return nil
}

// Transform replaces each fitted column with a numeric column of codes.
func (le *LabelEncoder) Transform(f *dataframe.Frame) (*dataframe.Frame, error) {
	if err := le.state.RequireFitted("LabelEncoder", "Transform"); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.Wrap(errors.ErrNoData, "LabelEncoder.Transform")
	}
	out := f.Copy()
	for _, name := range presentColumns(f, le.Columns) {
		classes, ok := le.Classes[name]
		if !ok {
			continue
		}
		code := make(map[string]int, len(classes))
		for i, c := range classes {
			code[c] = i
		}

		s, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		values := make([]float64, s.Len())
		for i, l := range labels(s) {
			k, ok := code[l]
			if !ok {
				return nil, errors.NewValueError("LabelEncoder.Transform",
					fmt.Sprintf("column '%s' contains previously unseen label '%s'", name, l))
			}
			values[i] = float64(k)
		}
		if out, err = out.With(dataframe.NewNumeric(name, values)); err != nil {
			return nil, err
		}
		le.logger.Debug("label encoded column", log.ColumnKey, name, "classes", classes)
	}
	return out, nil
}

// FitTransform fits on f and encodes it.
func (le *LabelEncoder) FitTransform(f *dataframe.Frame) (*dataframe.Frame, error) {
	if err := le.Fit(f); err != nil {
		return nil, err
	}
	return le.Transform(f)
}

// OneHotEncoder replaces each column with 0/1 indicator columns named
// "<column>_<value>", appended after the remaining columns. With DropFirst
// the indicator of the smallest category (numerically for numeric columns)
// is omitted, so k categories yield
// k-1 columns. Missing entries get zero in every indicator.
type OneHotEncoder struct {
	state *model.StateManager

	Columns   []string
	DropFirst bool
	// Categories holds the sorted non-missing categories per column.
	Categories map[string][]string

	logger log.Logger
}

// NewOneHotEncoder creates an encoder for the given columns.
func NewOneHotEncoder(dropFirst bool, columns ...string) *OneHotEncoder {
	return &OneHotEncoder{
		state:     model.NewStateManager(),
		Columns:   columns,
		DropFirst: dropFirst,
		logger:    log.GetLoggerWithName("OneHotEncoder"),
	}
}

// Fit learns the categories of every configured column present in f.
func (oh *OneHotEncoder) Fit(f *dataframe.Frame) error {
	if f == nil {
		return errors.Wrap(errors.ErrNoData, "OneHotEncoder.Fit")
	}
	oh.Categories = make(map[string][]string)
	for _, name := range presentColumns(f, oh.Columns) {
		s, err := f.Column(name)
		if err != nil {
			return err
		}
		oh.Categories[name] = categories(s)
	}
	rows, _ := f.Shape()
	oh.state.SetDimensions(len(oh.Categories), rows)
	oh.state.SetFitted()
	return nil
}

// FeatureNames returns the indicator column names produced for column.
func (oh *OneHotEncoder) FeatureNames(column string) []string {
	cats := oh.Categories[column]
	if oh.DropFirst && len(cats) > 0 {
		cats = cats[1:]
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = column + "_" + c
	}
	return names
}

// Transform drops each fitted column and appends its indicator columns.
// Categories not seen during Fit produce all-zero rows.
func (oh *OneHotEncoder) Transform(f *dataframe.Frame) (*dataframe.Frame, error) {
	if err := oh.state.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.Wrap(errors.ErrNoData, "OneHotEncoder.Transform")
	}

	cols := presentColumns(f, oh.Columns)
	out := f.Drop(cols...)
	for _, name := range cols {
		cats, ok := oh.Categories[name]
		if !ok {
			continue
		}
		s, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		if oh.DropFirst && len(cats) > 0 {
			cats = cats[1:]
		}
		for _, cat := range cats {
			ind := make([]float64, s.Len())
			for i := range ind {
				if !s.IsNull(i) && s.String(i) == cat {
					ind[i] = 1
				}
			}
			col := name + "_" + cat
			if out.Has(col) {
				return nil, errors.NewValueError("OneHotEncoder.Transform",
					fmt.Sprintf("indicator column '%s' would overwrite an existing column", col))
			}
			if out, err = out.With(dataframe.NewNumeric(col, ind)); err != nil {
				return nil, err
			}
		}
		oh.logger.Debug("one-hot encoded column", log.ColumnKey, name, log.ColumnsKey, oh.FeatureNames(name))
	}
	return out, nil
}

// FitTransform fits on f and encodes it.
func (oh *OneHotEncoder) FitTransform(f *dataframe.Frame) (*dataframe.Frame, error) {
	if err := oh.Fit(f); err != nil {
		return nil, err
	}
	return oh.Transform(f)
}

// Encode applies the named method to the columns of cols present in f and
// returns the encoded frame together with the columns it touched.
//
// Columns absent from f are ignored; when none is present a copy of f is
// returned. An unknown method returns f itself with ErrUnknownEncoding.
func Encode(f *dataframe.Frame, cols []string, method string) (*dataframe.Frame, []string, error) {
	if f == nil {
		return nil, nil, errors.Wrap(errors.ErrNoData, "preprocessing.Encode")
	}

	var enc model.FrameTransformer
	present := presentColumns(f, cols)
	switch method {
	case EncodingLabel:
		enc = NewLabelEncoder(present...)
	case EncodingOneHot:
		enc = NewOneHotEncoder(true, present...)
	default:
		return f, nil, errors.Wrapf(ErrUnknownEncoding, "method %q (expected %q or %q)", method, EncodingLabel, EncodingOneHot)
	}
	if len(present) == 0 {
		return f.Copy(), nil, nil
	}

	out, err := enc.FitTransform(f)
	if err != nil {
		return nil, nil, err
	}
	return out, present, nil
}
