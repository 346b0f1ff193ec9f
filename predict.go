package densegp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// PredictResult holds batched predictions at m test points. Variance
// and Deriv are nil unless they were requested: a caller that asked
// only for means gets only means.
type PredictResult struct {
	// Mean is the predictive mean at each test point.
	Mean []float64
	// Variance is the predictive variance at each test point, present
	// when uncertainty was requested.
	Variance []float64
	// Deriv is the m×D gradient of the predictive mean with respect to
	// the test inputs, present when derivatives were requested.
	Deriv *mat.Dense
}

// Predict computes predictions at the rows of testing. unc requests
// predictive variances, deriv requests gradients of the predictive
// mean with respect to the test inputs, and includeNugget adds the
// fitted nugget to each variance (prediction of an observation rather
// than of the latent function).
//
// Predict requires a prior successful Fit and returns ErrNotFit
// otherwise. The whole batch is served from one factorization
// snapshot: a concurrent Fit cannot change the answers mid-call.
func (g *GP) Predict(testing mat.Matrix, unc, deriv, includeNugget bool) (*PredictResult, error) {
	const op = "predict"
	post, err := g.snapshot()
	if err != nil {
		return nil, opErr(op, err)
	}
	if testing == nil {
		return nil, opErr(op, shapeErr("testing matrix is nil"))
	}
	m, d := testing.Dims()
	if d != g.dim {
		return nil, opErr(op, shapeErr("testing has %d columns, want %d", d, g.dim))
	}
	if m == 0 {
		return nil, opErr(op, shapeErr("testing has no rows"))
	}

	n := len(g.targets)
	kerTheta := post.theta[:g.dim+1]

	// Covariance between every training point and every test point.
	kStar := mat.NewDense(n, m, nil)
	xj := make([]float64, d)
	for j := 0; j < m; j++ {
		mat.Row(xj, j, testing)
		for i := 0; i < n; i++ {
			kStar.Set(i, j, g.kernel.Cov(g.inputs.RawRowView(i), xj, kerTheta))
		}
	}

	res := &PredictResult{Mean: make([]float64, m)}

	// mean_j = kStar_j . alpha
	meanVec := mat.NewVecDense(m, res.Mean)
	meanVec.MulVec(kStar.T(), post.alpha)

	if unc {
		res.Variance = g.predictVariance(post, kStar, testing, includeNugget)
	}
	if deriv {
		res.Deriv = g.predictMeanDeriv(post, testing)
	}
	return res, nil
}

// predictVariance computes var_j = k(x_j,x_j) - kStar_j^T K'^-1 kStar_j
// for each test point via solves against the cached Cholesky factor,
// clamping small negative results from roundoff to zero.
func (g *GP) predictVariance(post *posterior, kStar *mat.Dense, testing mat.Matrix, includeNugget bool) []float64 {
	n, m := kStar.Dims()
	kerTheta := post.theta[:g.dim+1]

	var v mat.Dense
	if err := post.chol.SolveTo(&v, kStar); err != nil {
		// The factor was checked positive definite at fit time.
		panic("densegp: solve against fitted factor failed: " + err.Error())
	}

	variance := make([]float64, m)
	xj := make([]float64, g.dim)
	for j := 0; j < m; j++ {
		mat.Row(xj, j, testing)
		kss := g.kernel.Cov(xj, xj, kerTheta)
		var reduction float64
		for i := 0; i < n; i++ {
			reduction += kStar.At(i, j) * v.At(i, j)
		}
		variance[j] = math.Max(0, kss-reduction)
		if includeNugget {
			variance[j] += post.nugget
		}
	}
	return variance
}

// predictMeanDeriv computes the m×D gradient of the predictive mean,
// contracting the input-space kernel gradient with alpha.
func (g *GP) predictMeanDeriv(post *posterior, testing mat.Matrix) *mat.Dense {
	m, _ := testing.Dims()
	n := len(g.targets)
	kerTheta := post.theta[:g.dim+1]

	out := mat.NewDense(m, g.dim, nil)
	xj := make([]float64, g.dim)
	dk := make([]float64, g.dim)
	row := make([]float64, g.dim)
	for j := 0; j < m; j++ {
		mat.Row(xj, j, testing)
		for d := range row {
			row[d] = 0
		}
		for i := 0; i < n; i++ {
			g.kernel.CovDX(xj, g.inputs.RawRowView(i), kerTheta, dk)
			ai := post.alpha.AtVec(i)
			for d := 0; d < g.dim; d++ {
				row[d] += ai * dk[d]
			}
		}
		out.SetRow(j, row)
	}
	return out
}

// PredictOne promotes a single D-dimensional input to a length-1 batch
// and predicts at it.
func (g *GP) PredictOne(x []float64, unc, deriv, includeNugget bool) (*PredictResult, error) {
	if len(x) != g.dim {
		return nil, opErr("predict", shapeErr("input has length %d, want %d", len(x), g.dim))
	}
	xc := make([]float64, len(x))
	copy(xc, x)
	return g.Predict(mat.NewDense(1, g.dim, xc), unc, deriv, includeNugget)
}

// Call is the callable-object form of the emulator: predict means only.
func (g *GP) Call(testing mat.Matrix) ([]float64, error) {
	res, err := g.Predict(testing, false, false, false)
	if err != nil {
		return nil, err
	}
	return res.Mean, nil
}
