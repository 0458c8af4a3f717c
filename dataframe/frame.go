package dataframe

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

// Field describes one column of a Schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered list of column descriptions.
type Schema []Field

// Frame is an ordered set of equally long columns.
type Frame struct {
	cols  []*Series
	index map[string]int
	nrows int
}

// New builds a Frame from series. Every series must have the same length
// and names must be unique.
func New(series ...*Series) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(series))}
	for i, s := range series {
		if i == 0 {
			f.nrows = s.Len()
		} else if s.Len() != f.nrows {
			return nil, errors.NewDimensionError("dataframe.New", f.nrows, s.Len(), 0)
		}
		if _, dup := f.index[s.Name]; dup {
			return nil, errors.NewValueError("dataframe.New", "duplicate column name '"+s.Name+"'")
		}
		f.index[s.Name] = i
		f.cols = append(f.cols, s)
	}
	return f, nil
}

// Shape returns (rows, columns).
func (f *Frame) Shape() (int, int) {
	return f.nrows, len(f.cols)
}

// Names returns column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the frame contains column name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named series. The returned series is shared with the
// frame and must not be modified.
func (f *Frame) Column(name string) (*Series, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, errors.NewColumnNotFoundError("Frame.Column", name, f.Names())
	}
	return f.cols[i], nil
}

// Columns returns all series in order.
func (f *Frame) Columns() []*Series {
	out := make([]*Series, len(f.cols))
	copy(out, f.cols)
	return out
}

// Schema returns the kind of every column.
func (f *Frame) Schema() Schema {
	s := make(Schema, len(f.cols))
	for i, c := range f.cols {
		s[i] = Field{Name: c.Name, Kind: c.Kind}
	}
	return s
}

// Copy returns a deep copy.
func (f *Frame) Copy() *Frame {
	return f.Take(nil)
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var keep []*Series
	for _, c := range f.cols {
		if !skip[c.Name] {
			keep = append(keep, c.Copy())
		}
	}
	return mustFrame(f.nrows, keep)
}

// Select returns a frame with only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := make([]*Series, 0, len(names))
	for _, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c.Copy())
	}
	return mustFrame(f.nrows, out), nil
}

// With returns a frame where s replaces the column of the same name, or is
// appended when no such column exists.
func (f *Frame) With(s *Series) (*Frame, error) {
	if len(f.cols) > 0 && s.Len() != f.nrows {
		return nil, errors.NewDimensionError("Frame.With", f.nrows, s.Len(), 0)
	}
	out := make([]*Series, 0, len(f.cols)+1)
	replaced := false
	for _, c := range f.cols {
		if c.Name == s.Name {
			out = append(out, s.Copy())
			replaced = true
			continue
		}
		out = append(out, c.Copy())
	}
	if !replaced {
		out = append(out, s.Copy())
	}
	return mustFrame(s.Len(), out), nil
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	n = clamp(n, f.nrows)
	return f.Take(identity(n))
}

// Tail returns the last n rows.
func (f *Frame) Tail(n int) *Frame {
	n = clamp(n, f.nrows)
	rows := make([]int, n)
	for i := range rows {
		rows[i] = f.nrows - n + i
	}
	return f.Take(rows)
}

// Take returns the rows at the given positions. nil copies all rows.
func (f *Frame) Take(rows []int) *Frame {
	n := f.nrows
	if rows != nil {
		n = len(rows)
	}
	out := make([]*Series, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Take(rows)
	}
	return mustFrame(n, out)
}

// NumericNames returns the names of numeric columns in order.
func (f *Frame) NumericNames() []string {
	return f.namesOfKind(Numeric)
}

// CategoricalNames returns the names of categorical columns in order.
func (f *Frame) CategoricalNames() []string {
	return f.namesOfKind(Categorical)
}

func (f *Frame) namesOfKind(k Kind) []string {
	var names []string
	for _, c := range f.cols {
		if c.Kind == k {
			names = append(names, c.Name)
		}
	}
	return names
}

// Matrix returns the named numeric columns (all columns when names is empty)
// as a rows x len(names) dense matrix.
func (f *Frame) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		names = f.Names()
	}
	if f.nrows == 0 || len(names) == 0 {
		return nil, errors.NewModelError("Frame.Matrix", "empty data", errors.ErrEmptyData)
	}
	m := mat.NewDense(f.nrows, len(names), nil)
	for j, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		if c.Kind != Numeric {
			return nil, errors.NewColumnTypeError("Frame.Matrix", n, Numeric.String(), c.Kind.String())
		}
		m.SetCol(j, c.Float)
	}
	return m, nil
}

// Vector returns a numeric column as a gonum vector.
func (s *Series) Vector() (*mat.VecDense, error) {
	if s.Kind != Numeric {
		return nil, errors.NewColumnTypeError("Series.Vector", s.Name, Numeric.String(), s.Kind.String())
	}
	if s.Len() == 0 {
		return nil, errors.NewModelError("Series.Vector", "empty data", errors.ErrEmptyData)
	}
	v := make([]float64, len(s.Float))
	copy(v, s.Float)
	return mat.NewVecDense(len(v), v), nil
}

func mustFrame(nrows int, cols []*Series) *Frame {
	f := &Frame{cols: cols, index: make(map[string]int, len(cols)), nrows: nrows}
	for i, c := range cols {
		f.index[c.Name] = i
	}
	return f
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
