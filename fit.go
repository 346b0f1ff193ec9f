package densegp

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const (
	// Theta comparison tolerances for deciding whether a cached
	// factorization can serve a query.
	thetaRtol = 1e-10
	thetaAtol = 1e-15

	// Adaptive nugget escalation: the first nonzero attempt is
	// adaptiveFloor times the mean covariance diagonal, doubling on
	// each failure.
	adaptiveFloor    = 1e-14
	maxAdaptiveTries = 50
)

// posterior is one fully-computed factorization snapshot. It is
// immutable after construction; the emulator swaps whole snapshots so
// readers never see a partial update.
type posterior struct {
	theta   []float64 // hyperparameters this snapshot was fit at
	nugget  float64   // diagonal term actually used
	chol    *mat.Cholesky
	alpha   *mat.VecDense // (K + nugget*I)^-1 * targets
	logDet  float64
	logPost float64   // negative log-posterior
	grad    []float64 // gradient of the negative log-posterior
}

// buildCov fills the n×n covariance matrix between the training inputs
// at the given kernel hyperparameters, without any nugget.
func (g *GP) buildCov(kerTheta []float64) *mat.SymDense {
	n := len(g.targets)
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		xi := g.inputs.RawRowView(i)
		for j := i; j < n; j++ {
			k.SetSym(i, j, g.kernel.Cov(xi, g.inputs.RawRowView(j), kerTheta))
		}
	}
	return k
}

// addDiag returns a copy of k with v added along the diagonal. k is
// left untouched so adaptive retries can restart from the same matrix.
func addDiag(k *mat.SymDense, n int, v float64) *mat.SymDense {
	kp := mat.NewSymDense(n, nil)
	kp.CopySym(k)
	for i := 0; i < n; i++ {
		kp.SetSym(i, i, k.At(i, i)+v)
	}
	return kp
}

// factorize Cholesky-factorizes the covariance matrix under the
// emulator's nugget policy and reports the diagonal term it used.
// Under the fixed and fit policies a factorization failure is fatal:
// the caller chose the nugget and it must not be silently altered.
// Under the adaptive policy the nugget escalates geometrically until
// the factorization succeeds or the retry bound is hit.
func (g *GP) factorize(k *mat.SymDense, theta []float64) (*mat.Cholesky, float64, error) {
	const op = "factorize"
	n := len(g.targets)
	var chol mat.Cholesky

	switch g.nugget.kind {
	case nuggetFixed:
		if !chol.Factorize(addDiag(k, n, g.nugget.value)) {
			return nil, 0, opErr(op, fmt.Errorf("%w with fixed nugget %v", ErrNotPositiveDefinite, g.nugget.value))
		}
		return &chol, g.nugget.value, nil

	case nuggetFit:
		delta := math.Exp(theta[len(theta)-1])
		if !chol.Factorize(addDiag(k, n, delta)) {
			return nil, 0, opErr(op, fmt.Errorf("%w with fit nugget %v", ErrNotPositiveDefinite, delta))
		}
		return &chol, delta, nil

	case nuggetAdaptive:
		if chol.Factorize(k) {
			return &chol, 0, nil
		}
		var meanDiag float64
		for i := 0; i < n; i++ {
			meanDiag += k.At(i, i)
		}
		meanDiag /= float64(n)
		delta := adaptiveFloor * meanDiag
		for try := 1; try <= maxAdaptiveTries; try++ {
			if chol.Factorize(addDiag(k, n, delta)) {
				g.logger.Debug("adaptive nugget accepted",
					zap.Float64("nugget", delta),
					zap.Int("attempts", try),
				)
				return &chol, delta, nil
			}
			delta *= 2
		}
		return nil, 0, opErr(op, fmt.Errorf("%w after %d adaptive nugget attempts", ErrNotPositiveDefinite, maxAdaptiveTries))
	}
	panic("densegp: unknown nugget kind")
}

// posteriorAt computes a complete factorization snapshot at theta
// without touching the emulator's cached state. Fit commits the result;
// the trainer probes candidate thetas through this directly.
func (g *GP) posteriorAt(theta []float64) (*posterior, error) {
	const op = "fit"
	if len(theta) != g.NParams() {
		return nil, opErr(op, shapeErr("theta has length %d, want %d", len(theta), g.NParams()))
	}
	n := len(g.targets)
	thetaC := make([]float64, len(theta))
	copy(thetaC, theta)
	kerTheta := thetaC[:g.dim+1]

	k := g.buildCov(kerTheta)
	chol, delta, err := g.factorize(k, thetaC)
	if err != nil {
		return nil, err
	}

	y := mat.NewVecDense(n, g.targets)
	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, y); err != nil {
		return nil, opErr(op, err)
	}

	// Negative log-posterior:
	//	0.5 y.alpha + 0.5 log|K'| + 0.5 n log(2 pi) - log prior
	logDet := chol.LogDet()
	logPost := 0.5*mat.Dot(y, alpha) +
		0.5*logDet +
		0.5*float64(n)*math.Log(2*math.Pi) -
		priorLogP(g.priors, thetaC)

	grad, err := g.posteriorGrad(chol, alpha, thetaC, delta)
	if err != nil {
		return nil, opErr(op, err)
	}

	return &posterior{
		theta:   thetaC,
		nugget:  delta,
		chol:    chol,
		alpha:   alpha,
		logDet:  logDet,
		logPost: logPost,
		grad:    grad,
	}, nil
}

// posteriorGrad computes the gradient of the negative log-posterior,
//
//	d/dtheta_p = 0.5 tr(K'^-1 dK'/dtheta_p) - 0.5 alpha^T dK'/dtheta_p alpha - d(log prior)/dtheta_p
//
// solving K'^-1 dK' against the Cholesky factor rather than forming an
// explicit inverse.
func (g *GP) posteriorGrad(chol *mat.Cholesky, alpha *mat.VecDense, theta []float64, delta float64) ([]float64, error) {
	n := len(g.targets)
	nParams := g.NParams()
	kerTheta := theta[:g.dim+1]

	dK := make([]*mat.SymDense, nParams)
	for p := range dK {
		dK[p] = mat.NewSymDense(n, nil)
	}
	deriv := make([]float64, g.dim+1)
	for i := 0; i < n; i++ {
		xi := g.inputs.RawRowView(i)
		for j := i; j < n; j++ {
			g.kernel.CovDTheta(xi, g.inputs.RawRowView(j), kerTheta, deriv)
			for p := 0; p <= g.dim; p++ {
				dK[p].SetSym(i, j, deriv[p])
			}
		}
	}
	if g.nugget.kind == nuggetFit {
		// The nugget enters as exp(theta_last)*I, so its derivative
		// with respect to the log-nugget parameter is delta*I.
		for i := 0; i < n; i++ {
			dK[nParams-1].SetSym(i, i, delta)
		}
	}

	grad := make([]float64, nParams)
	kInvDK := mat.NewDense(n, n, nil)
	for p := range dK {
		if err := chol.SolveTo(kInvDK, dK[p]); err != nil {
			return nil, err
		}
		grad[p] = 0.5*mat.Trace(kInvDK) - 0.5*mat.Inner(alpha, dK[p], alpha)
	}
	for i, pr := range g.priors {
		if pr == nil || i >= nParams {
			continue
		}
		grad[i] -= pr.DLogP(theta[i])
	}
	return grad, nil
}

// allClose reports whether two theta vectors agree elementwise within
// the cache tolerance |a-b| <= atol + rtol*|b|.
func allClose(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > thetaAtol+thetaRtol*math.Abs(b[i]) {
			return false
		}
	}
	return true
}
