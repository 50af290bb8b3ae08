package drift

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ksDistance computes the two-sample Kolmogorov-Smirnov statistic, the
// max vertical distance between the empirical CDFs, in [0,1].
func ksDistance(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	x := append([]float64(nil), a...)
	y := append([]float64(nil), b...)
	sort.Float64s(x)
	sort.Float64s(y)
	return stat.KolmogorovSmirnov(x, nil, y, nil)
}
