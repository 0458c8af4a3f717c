package dataframe

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the mean of the present values, or NaN when none are present.
func (s *Series) Mean() float64 {
	v := s.NonNullFloats()
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// MeanStd returns the mean and the sample standard deviation (n-1) of the
// present values. The deviation is NaN when fewer than two values are present.
func (s *Series) MeanStd() (mean, std float64) {
	v := s.NonNullFloats()
	switch len(v) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return v[0], math.NaN()
	}
	return stat.MeanStdDev(v, nil)
}

// MinMax returns the extremes of the present values.
func (s *Series) MinMax() (min, max float64) {
	v := s.NonNullFloats()
	if len(v) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(v), floats.Max(v)
}

// Quantile returns the q-th quantile of the present values using linear
// interpolation between closest ranks (position q*(n-1)).
func (s *Series) Quantile(q float64) float64 {
	v := s.NonNullFloats()
	if len(v) == 0 {
		return math.NaN()
	}
	sort.Float64s(v)
	return Quantile(v, q)
}

// Median is Quantile(0.5).
func (s *Series) Median() float64 {
	return s.Quantile(0.5)
}

// Quantile computes the q-th quantile of sorted data.
//
// stat.Quantile の LinInterp は経験分布上の補間で、位置 q*(n-1) の補間とは
// 値が異なる（[1 2 3 4] の中央値が 2 になる）ため自前で計算します。
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Mode returns the most frequent present value as its display string.
// Ties go to the smallest value (numeric order for numeric series).
func (s *Series) Mode() (string, bool) {
	counts := make(map[string]int)
	var keys []string
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		k := s.String(i)
		if counts[k] == 0 {
			keys = append(keys, k)
		}
		counts[k]++
	}
	if len(keys) == 0 {
		return "", false
	}

	if s.Kind == Numeric {
		sort.Slice(keys, func(i, j int) bool { return parseOrNaN(keys[i]) < parseOrNaN(keys[j]) })
	} else {
		sort.Strings(keys)
	}
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}

func parseOrNaN(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
