package densegp

import (
	"math"
)

// Kernel is a covariance function between input vectors. The
// hyperparameters are an explicit argument rather than kernel state so
// that a single kernel value can be shared across concurrent
// evaluations at different theta.
//
// The emulator only accepts SquaredExponential; the interface exists to
// keep the call sites honest about what they need from a kernel.
type Kernel interface {
	// Cov returns the covariance between x and y at the given
	// hyperparameters.
	Cov(x, y, theta []float64) float64

	// CovDTheta returns the covariance and stores into deriv the
	// partial derivatives of the covariance with respect to each
	// kernel hyperparameter. deriv must have length NumHyper(len(x)).
	CovDTheta(x, y, theta, deriv []float64) float64

	// CovDX returns the covariance and stores into deriv the gradient
	// of the covariance with respect to the components of x. deriv
	// must have length len(x).
	CovDX(x, y, theta, deriv []float64) float64

	// NumHyper returns the number of kernel hyperparameters for
	// inputs of the given dimension.
	NumHyper(dim int) int
}

// SquaredExponential is the squared exponential (RBF) kernel with one
// length scale per input dimension,
//
//	k(x, y) = s² * exp(-0.5 * Σ_d ((x_d-y_d)/l_d)²)
//
// parameterized in log space for numerical conditioning: theta[d] is
// the log length scale of dimension d and theta[D] is the log variance
// s². There are D+1 hyperparameters for D-dimensional inputs.
type SquaredExponential struct{}

var _ Kernel = SquaredExponential{}

func (SquaredExponential) NumHyper(dim int) int {
	return dim + 1
}

// scaledSqDist returns Σ_d ((x_d-y_d)/l_d)² with l_d = exp(theta[d]).
func scaledSqDist(x, y, theta []float64) float64 {
	var r2 float64
	for d := range x {
		diff := (x[d] - y[d]) * math.Exp(-theta[d])
		r2 += diff * diff
	}
	return r2
}

func (SquaredExponential) Cov(x, y, theta []float64) float64 {
	if len(x) != len(y) {
		panic(badInputLength)
	}
	if len(theta) != len(x)+1 {
		panic(badHyperLength)
	}
	return math.Exp(theta[len(x)] - 0.5*scaledSqDist(x, y, theta))
}

// CovDTheta computes the covariance and its hyperparameter gradient.
// For the log length scales,
//
//	dk/dtheta_d = k * ((x_d-y_d)/l_d)²
//
// and for the log variance dk/dtheta_D = k, since k is linear in s².
func (SquaredExponential) CovDTheta(x, y, theta, deriv []float64) float64 {
	dim := len(x)
	if len(y) != dim {
		panic(badInputLength)
	}
	if len(theta) != dim+1 {
		panic(badHyperLength)
	}
	if len(deriv) != dim+1 {
		panic(badStorage)
	}
	var r2 float64
	for d := 0; d < dim; d++ {
		diff := (x[d] - y[d]) * math.Exp(-theta[d])
		deriv[d] = diff * diff
		r2 += deriv[d]
	}
	k := math.Exp(theta[dim] - 0.5*r2)
	for d := 0; d < dim; d++ {
		deriv[d] *= k
	}
	deriv[dim] = k
	return k
}

// CovDX computes the covariance and its gradient with respect to the
// components of x,
//
//	dk/dx_d = -k * (x_d-y_d)/l_d²
func (SquaredExponential) CovDX(x, y, theta, deriv []float64) float64 {
	dim := len(x)
	if len(y) != dim {
		panic(badInputLength)
	}
	if len(theta) != dim+1 {
		panic(badHyperLength)
	}
	if len(deriv) != dim {
		panic(badStorage)
	}
	k := math.Exp(theta[dim] - 0.5*scaledSqDist(x, y, theta))
	for d := 0; d < dim; d++ {
		invL2 := math.Exp(-2 * theta[d])
		deriv[d] = -k * (x[d] - y[d]) * invL2
	}
	return k
}
