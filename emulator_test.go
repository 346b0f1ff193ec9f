package densegp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fakeKernel is a non-squared-exponential kernel for rejection tests.
type fakeKernel struct{}

func (fakeKernel) Cov(x, y, theta []float64) float64              { return 0 }
func (fakeKernel) CovDTheta(x, y, theta, deriv []float64) float64 { return 0 }
func (fakeKernel) CovDX(x, y, theta, deriv []float64) float64     { return 0 }
func (fakeKernel) NumHyper(dim int) int                           { return dim + 1 }

func TestNewValidation(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := []float64{1, 2, 3}

	_, err := New(nil, y)
	assert.ErrorIs(t, err, ErrShape)

	_, err = New(x, []float64{1, 2})
	assert.ErrorIs(t, err, ErrShape)

	_, err = New(x, y, WithKernel(fakeKernel{}))
	assert.Error(t, err, "non squared exponential kernel must be rejected")

	_, err = New(x, y, WithKernel(nil))
	assert.Error(t, err)

	_, err = New(x, y, WithPriors(nil, nil, nil, nil))
	assert.ErrorIs(t, err, ErrShape, "more priors than hyperparameters")

	g, err := New(x, y)
	require.NoError(t, err)
	assert.Equal(t, 3, g.N())
	assert.Equal(t, 2, g.D())
	assert.Equal(t, 3, g.NParams())
	assert.Equal(t, "adaptive", g.NuggetType())
}

func TestNParamsPerNuggetPolicy(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	y := []float64{1, 2}

	g, err := New(x, y)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NParams())

	g, err = New(x, y, WithNugget(FitNugget()))
	require.NoError(t, err)
	assert.Equal(t, 5, g.NParams())

	g, err = New(x, y, WithNugget(fixedNugget(t, 0.1)))
	require.NoError(t, err)
	assert.Equal(t, 4, g.NParams())
	assert.Equal(t, "fixed", g.NuggetType())
	v, ok := g.NuggetValue()
	require.True(t, ok)
	assert.Equal(t, 0.1, v)
}

func TestTrainingDataCopied(t *testing.T) {
	data := []float64{0, 1, 2}
	x := mat.NewDense(3, 1, data)
	y := []float64{0, 1, 4}
	g, err := New(x, y)
	require.NoError(t, err)

	// Mutating the caller's arrays must not reach the emulator.
	data[0] = 100
	y[0] = 100
	assert.Equal(t, 0.0, g.Inputs().At(0, 0))
	assert.Equal(t, 0.0, g.Targets()[0])

	// Accessor results are copies too.
	g.Inputs().Set(0, 0, -7)
	g.Targets()[0] = -7
	assert.Equal(t, 0.0, g.Inputs().At(0, 0))
	assert.Equal(t, 0.0, g.Targets()[0])
}

func TestThetaBeforeFit(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{0, 1, 2})
	g, err := New(x, []float64{0, 1, 4})
	require.NoError(t, err)

	theta, ok := g.Theta()
	assert.False(t, ok)
	assert.Nil(t, theta)

	_, ok = g.NuggetValue()
	assert.False(t, ok)
}

func TestLogPostHessianNotImplemented(t *testing.T) {
	g := quadraticEmulator(t)

	h, err := g.LogPostHessian([]float64{0, 0})
	assert.Nil(t, h)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestKMatrixRoundTrip(t *testing.T) {
	g := quadraticEmulator(t)

	got, err := g.KMatrix()
	require.NoError(t, err)

	// Rebuild K + nugget*I directly from the kernel and compare; the
	// reconstruction through the inverse is lossy but should agree to
	// well within 1e-8 for this well-conditioned matrix.
	theta := []float64{0, 0}
	k := g.buildCov(theta)
	n := g.N()
	want := addDiag(k, n, 1e-6)
	assert.True(t, mat.EqualApprox(want, got, 1e-8))
}

func TestKMatrixBeforeFit(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{0, 1, 2})
	g, err := New(x, []float64{0, 1, 4})
	require.NoError(t, err)

	_, err = g.KMatrix()
	assert.ErrorIs(t, err, ErrNotFit)
}

func TestString(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	g, err := New(x, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "Gaussian process with 3 training examples and 2 input variables", g.String())
}
