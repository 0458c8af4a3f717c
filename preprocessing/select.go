package preprocessing

import (
	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

// DropNonNumeric removes every categorical column except target and returns
// the names it removed, in frame order.
func DropNonNumeric(f *dataframe.Frame, target string) (*dataframe.Frame, []string, error) {
	if f == nil {
		return nil, nil, errors.Wrap(errors.ErrNoData, "preprocessing.DropNonNumeric")
	}
	var drop []string
	for _, name := range f.CategoricalNames() {
		if name != target {
			drop = append(drop, name)
		}
	}
	return f.Drop(drop...), drop, nil
}
