package densegp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LOOResult holds leave-one-out predictive diagnostics: for each
// training point, the mean and variance the model would predict for it
// had it been held out, and the summed predictive log probability of
// the held-out targets.
type LOOResult struct {
	Mean     []float64
	Variance []float64
	LogProb  float64
}

// LeaveOneOut computes leave-one-out diagnostics from the cached
// factorization without refitting n times, using the standard
// identities
//
//	mu_i      = y_i - alpha_i / (K'^-1)_ii
//	sigma²_i  = 1 / (K'^-1)_ii
//
// It requires a prior successful Fit.
func (g *GP) LeaveOneOut() (*LOOResult, error) {
	const op = "loocv"
	post, err := g.snapshot()
	if err != nil {
		return nil, opErr(op, err)
	}
	n := len(g.targets)
	invQ := mat.NewSymDense(n, nil)
	if err := post.chol.InverseTo(invQ); err != nil {
		return nil, opErr(op, err)
	}

	res := &LOOResult{
		Mean:     make([]float64, n),
		Variance: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		qii := invQ.At(i, i)
		resid := post.alpha.AtVec(i) / qii
		sigma2 := 1 / qii
		res.Mean[i] = g.targets[i] - resid
		res.Variance[i] = sigma2
		res.LogProb += -0.5*math.Log(2*math.Pi*sigma2) - 0.5*resid*resid/sigma2
	}
	return res, nil
}
