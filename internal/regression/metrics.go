package regression

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/prop-projector/internal/models"
)

// fitStatistics holds the metrics plus the residual spread used for prediction intervals
type fitStatistics struct {
	metrics        models.ModelMetrics
	residualStdDev float64
}

// computeMetrics scores the fitted values against the targets. The rows are
// unweighted; p is the number of features excluding the intercept.
func computeMetrics(actual, fitted []float64, p int) fitStatistics {
	n := len(actual)
	residuals := make([]float64, n)
	var ssRes, absSum float64
	for i := range actual {
		r := actual[i] - fitted[i]
		residuals[i] = r
		ssRes += r * r
		absSum += math.Abs(r)
	}

	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, y := range actual {
		d := y - mean
		ssTot += d * d
	}

	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	df := n - p - 1
	adjusted := rSquared
	stdErrDF := float64(df)
	if df <= 0 {
		stdErrDF = float64(n)
	} else {
		adjusted = 1 - (1-rSquared)*float64(n-1)/float64(df)
	}

	return fitStatistics{
		metrics: models.ModelMetrics{
			RSquared:         rSquared,
			AdjustedRSquared: adjusted,
			RMSE:             math.Sqrt(ssRes / float64(n)),
			MAE:              absSum / float64(n),
			StandardError:    math.Sqrt(ssRes / stdErrDF),
		},
		residualStdDev: stat.PopStdDev(residuals, nil),
	}
}
