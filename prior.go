package densegp

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prior is a log-prior density over a single hyperparameter. Priors
// enter the fit only as additive terms: the negative log-posterior
// subtracts LogP(theta_i) for each parameter with a prior, and the
// gradient subtracts DLogP(theta_i). A nil prior contributes zero.
type Prior interface {
	// LogP returns the log prior density at x.
	LogP(x float64) float64
	// DLogP returns the derivative of the log prior density at x.
	DLogP(x float64) float64
}

// NormalPrior is a normal prior on a hyperparameter. Since the
// hyperparameters live in log space, a NormalPrior on theta_i is a
// lognormal prior on the underlying positive quantity.
type NormalPrior struct {
	Mu    float64
	Sigma float64
}

var _ Prior = NormalPrior{}

func (p NormalPrior) LogP(x float64) float64 {
	return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma}.LogProb(x)
}

func (p NormalPrior) DLogP(x float64) float64 {
	return -(x - p.Mu) / (p.Sigma * p.Sigma)
}

// GammaPrior is a gamma prior applied to exp(theta_i), the positive
// transformed parameter. Its density in theta space includes the
// Jacobian of the exponential transform.
type GammaPrior struct {
	Shape float64
	Rate  float64
}

var _ Prior = GammaPrior{}

func (p GammaPrior) LogP(x float64) float64 {
	// log p(theta) = log Gamma(exp(theta)) + theta, the trailing theta
	// being the log Jacobian d exp(theta)/d theta.
	return distuv.Gamma{Alpha: p.Shape, Beta: p.Rate}.LogProb(math.Exp(x)) + x
}

func (p GammaPrior) DLogP(x float64) float64 {
	// d/dtheta [ (a-1)theta - b exp(theta) + theta ] plus constants.
	return p.Shape - p.Rate*math.Exp(x)
}

// priorLogP sums the log prior density over all parameters with a
// prior attached. priors may be nil or shorter than theta; missing
// entries are flat.
func priorLogP(priors []Prior, theta []float64) float64 {
	var sum float64
	for i, p := range priors {
		if p == nil || i >= len(theta) {
			continue
		}
		sum += p.LogP(theta[i])
	}
	return sum
}
