package tidy_test

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy"
)

func ExampleDataFrame_Complete() {
	mem := memory.NewGoAllocator()
	df := tidy.NewDataFrame(
		tidy.NewSeries("state", []string{"CA", "CA", "HI", "HI"}, mem),
		tidy.NewSeries("year", []int64{2010, 2013, 2010, 2012}, mem),
		tidy.NewSeries("value", []int64{1, 3, 1, 2}, mem),
	)
	defer df.Release()

	out, err := df.Complete(
		[]tidy.GroupSpec{tidy.Map(tidy.Entry("year", tidy.FullSeq("year", 1)))},
		tidy.Options{By: []string{"state"}, Sort: true, FillValue: 0, Explicit: true})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer out.Release()

	for i := 0; i < out.Len(); i++ {
		fmt.Println(out.Value("state", i), out.Value("year", i), out.Value("value", i))
	}
	// Output:
	// CA 2010 1
	// CA 2011 0
	// CA 2012 0
	// CA 2013 3
	// HI 2010 1
	// HI 2011 0
	// HI 2012 2
}
