package densegp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/diff/fd"
)

func TestNormalPriorDeriv(t *testing.T) {
	p := NormalPrior{Mu: 0.5, Sigma: 1.5}
	for _, x := range []float64{-2, -0.3, 0.5, 1.7} {
		want := fd.Derivative(p.LogP, x, &fd.Settings{Formula: fd.Central})
		assert.InDelta(t, want, p.DLogP(x), 1e-8, "at %v", x)
	}
}

func TestGammaPriorDeriv(t *testing.T) {
	p := GammaPrior{Shape: 2, Rate: 3}
	for _, x := range []float64{-1.5, -0.2, 0.4, 1.1} {
		want := fd.Derivative(p.LogP, x, &fd.Settings{Formula: fd.Central})
		assert.InDelta(t, want, p.DLogP(x), 1e-6, "at %v", x)
	}
}

func TestPriorLogPSkipsNilAndExtra(t *testing.T) {
	theta := []float64{1, 2}
	priors := []Prior{nil, NormalPrior{Mu: 0, Sigma: 1}}
	assert.InDelta(t, NormalPrior{Mu: 0, Sigma: 1}.LogP(2), priorLogP(priors, theta), 1e-14)
	assert.Equal(t, 0.0, priorLogP(nil, theta))
}
