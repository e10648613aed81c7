package complete

import (
	"github.com/paveg/tidy/internal/dataframe"
)

// order sorts frame ascending by keys when sorted is set, and otherwise
// returns it as is. Either way the caller owns the returned frame and
// frame itself.
func order(frame *dataframe.DataFrame, keys []string, sorted bool) (*dataframe.DataFrame, error) {
	if !sorted {
		return frame.Clone(), nil
	}
	ascending := make([]bool, len(keys))
	for i := range ascending {
		ascending[i] = true
	}
	return frame.SortBy(keys, ascending)
}
