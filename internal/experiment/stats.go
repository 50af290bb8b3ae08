package experiment

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ciConfidence is the coverage of the reported mean-difference interval
const ciConfidence = 0.95

// tTestResult holds the two-sample comparison outputs
type tTestResult struct {
	MeanA              float64
	MeanB              float64
	T                  float64
	DegreesOfFreedom   float64
	PValue             float64
	ConfidenceInterval [2]float64
}

// welchTTest runs Welch's unequal-variance t-test between two samples.
// Welch's variant is used because variant score distributions have no
// reason to share a variance; degrees of freedom follow
// Welch-Satterthwaite. The interval is for meanB - meanA.
func welchTTest(a, b []float64) tTestResult {
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	nA := float64(len(a))
	nB := float64(len(b))

	res := tTestResult{MeanA: meanA, MeanB: meanB, PValue: 1}

	seSq := varA/nA + varB/nB
	if seSq == 0 {
		// Zero variance in both samples: identical means are a wash,
		// different means are trivially separated.
		if meanA != meanB {
			res.PValue = 0
		}
		res.ConfidenceInterval = [2]float64{meanB - meanA, meanB - meanA}
		return res
	}
	se := math.Sqrt(seSq)

	res.T = (meanB - meanA) / se
	res.DegreesOfFreedom = welchSatterthwaite(varA, nA, varB, nB)

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DegreesOfFreedom}
	res.PValue = 2 * dist.CDF(-math.Abs(res.T))

	critical := dist.Quantile(1 - (1-ciConfidence)/2)
	diff := meanB - meanA
	res.ConfidenceInterval = [2]float64{diff - critical*se, diff + critical*se}
	return res
}

func welchSatterthwaite(varA, nA, varB, nB float64) float64 {
	num := math.Pow(varA/nA+varB/nB, 2)
	den := math.Pow(varA/nA, 2)/(nA-1) + math.Pow(varB/nB, 2)/(nB-1)
	if den == 0 {
		return 1
	}
	return num / den
}
