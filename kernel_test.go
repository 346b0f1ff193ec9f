package densegp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

func TestSquaredExponentialCov(t *testing.T) {
	k := SquaredExponential{}

	// Unit length scales and variance: k = exp(-0.5 r²).
	theta := []float64{0, 0, 0}
	x := []float64{1, 2}
	y := []float64{2, 0}
	want := math.Exp(-0.5 * (1 + 4))
	assert.InDelta(t, want, k.Cov(x, y, theta), 1e-14)

	// Self-covariance is the variance.
	assert.InDelta(t, math.Exp(0.7), k.Cov(x, x, []float64{0, 0, 0.7}), 1e-14)

	// Symmetry.
	assert.Equal(t, k.Cov(x, y, theta), k.Cov(y, x, theta))

	// Per-dimension length scales.
	theta = []float64{math.Log(2), math.Log(0.5), math.Log(3)}
	r2 := math.Pow((x[0]-y[0])/2, 2) + math.Pow((x[1]-y[1])/0.5, 2)
	assert.InDelta(t, 3*math.Exp(-0.5*r2), k.Cov(x, y, theta), 1e-12)
}

func TestSquaredExponentialCovDTheta(t *testing.T) {
	k := SquaredExponential{}
	x := []float64{0.3, -1.2, 0.8}
	y := []float64{-0.5, 0.4, 1.1}
	theta := []float64{0.2, -0.3, 0.5, -0.1}

	deriv := make([]float64, 4)
	cov := k.CovDTheta(x, y, theta, deriv)
	require.InDelta(t, k.Cov(x, y, theta), cov, 1e-14)

	fdGrad := fd.Gradient(nil, func(th []float64) float64 {
		return k.Cov(x, y, th)
	}, theta, &fd.Settings{Formula: fd.Central})
	assert.True(t, floats.EqualApprox(fdGrad, deriv, 1e-6),
		"analytic %v, finite difference %v", deriv, fdGrad)
}

func TestSquaredExponentialCovDX(t *testing.T) {
	k := SquaredExponential{}
	x := []float64{0.3, -1.2}
	y := []float64{-0.5, 0.4}
	theta := []float64{0.2, -0.3, 0.5}

	deriv := make([]float64, 2)
	cov := k.CovDX(x, y, theta, deriv)
	require.InDelta(t, k.Cov(x, y, theta), cov, 1e-14)

	fdGrad := fd.Gradient(nil, func(xx []float64) float64 {
		return k.Cov(xx, y, theta)
	}, x, &fd.Settings{Formula: fd.Central})
	assert.True(t, floats.EqualApprox(fdGrad, deriv, 1e-6),
		"analytic %v, finite difference %v", deriv, fdGrad)
}

func TestSquaredExponentialPanics(t *testing.T) {
	k := SquaredExponential{}
	assert.Panics(t, func() { k.Cov([]float64{1}, []float64{1, 2}, []float64{0, 0}) })
	assert.Panics(t, func() { k.Cov([]float64{1}, []float64{1}, []float64{0, 0, 0}) })
	assert.Panics(t, func() { k.CovDTheta([]float64{1}, []float64{1}, []float64{0, 0}, make([]float64, 5)) })
	assert.Panics(t, func() { k.CovDX([]float64{1}, []float64{1}, []float64{0, 0}, make([]float64, 2)) })
}
