// Package dataframe は表形式データの最小限のインメモリ表現を提供します。
//
// 各列（Series）は読み込み時に型が確定するタグ付きユニオンで、数値列は
// float64（欠損は NaN）、カテゴリ列は文字列と有効フラグで値を保持します。
// Frame に対する操作はすべて新しい Frame を返し、入力を変更しません。
package dataframe

import (
	"math"
	"strconv"
)

// Kind is the declared type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Series is one named column.
//
// Numeric series use Float with NaN marking missing cells. Categorical
// series use Str with Valid[i] == false marking missing cells.
type Series struct {
	Name  string
	Kind  Kind
	Float []float64
	Str   []string
	Valid []bool
}

// NewNumeric creates a numeric series. NaN entries are missing.
func NewNumeric(name string, values []float64) *Series {
	v := make([]float64, len(values))
	copy(v, values)
	return &Series{Name: name, Kind: Numeric, Float: v}
}

// NewCategorical creates a categorical series. valid may be nil, meaning
// every cell is present.
func NewCategorical(name string, values []string, valid []bool) *Series {
	s := &Series{Name: name, Kind: Categorical, Str: make([]string, len(values)), Valid: make([]bool, len(values))}
	copy(s.Str, values)
	for i := range s.Valid {
		s.Valid[i] = valid == nil || valid[i]
	}
	return s
}

// Len returns the number of rows.
func (s *Series) Len() int {
	if s.Kind == Numeric {
		return len(s.Float)
	}
	return len(s.Str)
}

// IsNull reports whether row i is missing.
func (s *Series) IsNull(i int) bool {
	if s.Kind == Numeric {
		return math.IsNaN(s.Float[i])
	}
	return !s.Valid[i]
}

// NullCount returns the number of missing cells.
func (s *Series) NullCount() int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			n++
		}
	}
	return n
}

// NonNullFloats returns the present values of a numeric series.
func (s *Series) NonNullFloats() []float64 {
	out := make([]float64, 0, len(s.Float))
	for _, v := range s.Float {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NonNullStrings returns the present values of a categorical series.
func (s *Series) NonNullStrings() []string {
	out := make([]string, 0, len(s.Str))
	for i, v := range s.Str {
		if s.Valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// String returns the display value of row i; missing cells render as "NaN".
func (s *Series) String(i int) string {
	if s.IsNull(i) {
		return "NaN"
	}
	if s.Kind == Numeric {
		return strconv.FormatFloat(s.Float[i], 'g', -1, 64)
	}
	return s.Str[i]
}

// Copy returns a deep copy.
func (s *Series) Copy() *Series {
	return s.Take(nil)
}

// Rename returns a copy carrying a different name.
func (s *Series) Rename(name string) *Series {
	c := s.Copy()
	c.Name = name
	return c
}

// Take returns the rows at the given positions. A nil rows slice copies all rows.
func (s *Series) Take(rows []int) *Series {
	if rows == nil {
		rows = identity(s.Len())
	}
	out := &Series{Name: s.Name, Kind: s.Kind}
	if s.Kind == Numeric {
		out.Float = make([]float64, len(rows))
		for i, r := range rows {
			out.Float[i] = s.Float[r]
		}
		return out
	}
	out.Str = make([]string, len(rows))
	out.Valid = make([]bool, len(rows))
	for i, r := range rows {
		out.Str[i] = s.Str[r]
		out.Valid[i] = s.Valid[r]
	}
	return out
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
