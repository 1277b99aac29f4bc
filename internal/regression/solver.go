package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/prop-projector/internal/models"
)

// svdRcond is the relative singular value cutoff for the fallback solve
const svdRcond = 1e-12

type solution struct {
	beta   []float64
	solver string
	cond   float64
}

// normalEquations builds (XᵀWX + λD) and XᵀWy. Column 0 of x is the intercept.
func normalEquations(x *mat.Dense, y, w []float64, lambda float64, penalizeIntercept bool) (*mat.Dense, *mat.VecDense) {
	n, k := x.Dims()

	xw := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			xw.Set(i, j, x.At(i, j)*w[i])
		}
	}

	var a mat.Dense
	a.Mul(x.T(), xw)
	for j := 0; j < k; j++ {
		if j == 0 && !penalizeIntercept {
			continue
		}
		a.Set(j, j, a.At(j, j)+lambda)
	}

	b := mat.NewVecDense(k, nil)
	b.MulVec(xw.T(), mat.NewVecDense(n, y))
	return &a, b
}

// solveLU factorizes with partial pivoting. ok is false when the system is too
// ill-conditioned to trust.
func solveLU(a *mat.Dense, b *mat.VecDense, threshold float64) (sol solution, ok bool) {
	var lu mat.LU
	lu.Factorize(a)
	cond := lu.Cond()
	sol.cond = cond
	if math.IsInf(cond, 0) || math.IsNaN(cond) || cond > threshold {
		return sol, false
	}

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		return sol, false
	}
	sol.beta = vecValues(&x)
	sol.solver = models.SolverLU
	return sol, allFinite(sol.beta)
}

// solveSVD solves the system in the least-squares sense on the numerically
// non-zero singular values.
func solveSVD(a *mat.Dense, b *mat.VecDense) (solution, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return solution{}, fmt.Errorf("%w: svd factorization failed", ErrNumericalInstability)
	}
	rank := svd.Rank(svdRcond)
	if rank == 0 {
		return solution{}, fmt.Errorf("%w: normal matrix has rank 0", ErrNumericalInstability)
	}

	var x mat.VecDense
	svd.SolveVecTo(&x, b, rank)
	beta := vecValues(&x)
	if !allFinite(beta) {
		return solution{}, fmt.Errorf("%w: svd produced non-finite coefficients", ErrNumericalInstability)
	}
	return solution{beta: beta, solver: models.SolverSVD, cond: svd.Cond()}, nil
}

func vecValues(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
