package resample_test

import (
	"fmt"

	"github.com/cwbudde/algo-mixer/dsp/resample"
)

func ExampleNewForRates() {
	r, err := resample.NewForRates(44100, 48000, resample.QualityBalanced)
	if err != nil {
		panic(err)
	}
	up, down := r.Ratio()
	fmt.Println(up, down, r.OutputLen(441))
	// Output: 160 147 480
}
