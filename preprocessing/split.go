package preprocessing

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

// SplitOptions controls TrainTestSplit.
type SplitOptions struct {
	// TestSize is the fraction of rows held out, in (0, 1).
	TestSize float64
	// RandomState seeds the permutation; equal seeds give equal splits.
	RandomState uint64
	// Shuffle permutes rows before splitting. Without it the last rows form the test set.
	Shuffle bool
}

// DefaultSplitOptions holds out 30% of rows with seed 42.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{TestSize: 0.3, RandomState: 42, Shuffle: true}
}

// Split is the result of TrainTestSplit.
type Split struct {
	XTrain, XTest *dataframe.Frame
	YTrain, YTest *dataframe.Series
	// TrainIndex and TestIndex are row positions in the input frame.
	TrainIndex, TestIndex []int
}

// FeatureNames returns the feature column names.
func (s *Split) FeatureNames() []string {
	return s.XTrain.Names()
}

// TrainTestSplit separates target from the features of f and partitions the
// rows into train and test sets. The test set has ceil(TestSize*n) rows.
func TrainTestSplit(f *dataframe.Frame, target string, opts SplitOptions) (*Split, error) {
	if f == nil {
		return nil, errors.Wrap(errors.ErrNoData, "preprocessing.TrainTestSplit")
	}
	if !f.Has(target) {
		return nil, errors.NewColumnNotFoundError("preprocessing.TrainTestSplit", target, f.Names())
	}
	if !(opts.TestSize > 0 && opts.TestSize < 1) {
		return nil, errors.NewValidationError("test_size", "must be in the open interval (0, 1)", opts.TestSize)
	}

	y, err := f.Column(target)
	if err != nil {
		return nil, err
	}
	X := f.Drop(target)
	n, nFeatures := X.Shape()
	if n == 0 || nFeatures == 0 {
		return nil, errors.NewModelError("preprocessing.TrainTestSplit", "empty data", errors.ErrEmptyData)
	}

	nTest := int(math.Ceil(opts.TestSize * float64(n)))
	nTrain := n - nTest
	if nTrain <= 0 || nTest <= 0 {
		return nil, errors.NewValidationError("test_size",
			"leaves one of the partitions empty", opts.TestSize)
	}

	var perm []int
	if opts.Shuffle {
		rng := rand.New(rand.NewPCG(opts.RandomState, opts.RandomState))
		perm = rng.Perm(n)
	} else {
		// 並べ替えない場合は末尾 nTest 行をテストに回す
		perm = make([]int, n)
		for i := range perm {
			perm[i] = (nTrain + i) % n
		}
	}
	testIdx := append([]int(nil), perm[:nTest]...)
	trainIdx := append([]int(nil), perm[nTest:]...)

	return &Split{
		XTrain:     X.Take(trainIdx),
		XTest:      X.Take(testIdx),
		YTrain:     y.Take(trainIdx),
		YTest:      y.Take(testIdx),
		TrainIndex: trainIdx,
		TestIndex:  testIdx,
	}, nil
}
