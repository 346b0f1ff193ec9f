package densegp

import (
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// TrainResult reports the outcome of hyperparameter estimation.
type TrainResult struct {
	// Theta is the best hyperparameter vector found.
	Theta []float64
	// LogPost is the negative log-posterior at Theta.
	LogPost float64
	// Tries is the number of optimization attempts that converged.
	Tries int
}

// Train estimates the hyperparameters of g by maximum a posteriori:
// it minimizes the negative log-posterior with a gradient-based
// optimizer from nTries random starting points drawn from a standard
// normal, then commits the best result with Fit. src may be nil to use
// the default random source.
//
// Candidate thetas where the covariance matrix cannot be factorized
// evaluate to +Inf, steering the optimizer back toward feasible
// hyperparameters rather than aborting the attempt.
func Train(g *GP, nTries int, src rand.Source) (*TrainResult, error) {
	const op = "train"
	if nTries < 1 {
		return nil, opErr(op, fmt.Errorf("nTries must be at least 1, got %d", nTries))
	}
	nParams := g.NParams()
	start := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	// Cache the last evaluated posterior so the optimizer's paired
	// Func/Grad calls at the same theta factorize once.
	var lastTheta []float64
	var lastPost *posterior
	eval := func(x []float64) *posterior {
		if lastPost != nil && allClose(x, lastTheta) {
			return lastPost
		}
		post, err := g.posteriorAt(x)
		if err != nil {
			lastPost = nil
			return nil
		}
		lastTheta = append(lastTheta[:0], x...)
		lastPost = post
		return post
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			post := eval(x)
			if post == nil {
				return math.Inf(1)
			}
			return post.logPost
		},
		Grad: func(grad, x []float64) {
			post := eval(x)
			if post == nil {
				for i := range grad {
					grad[i] = math.NaN()
				}
				return
			}
			copy(grad, post.grad)
		},
	}

	best := &TrainResult{LogPost: math.Inf(1)}
	for try := 0; try < nTries; try++ {
		x0 := make([]float64, nParams)
		for i := range x0 {
			x0[i] = start.Rand()
		}
		result, err := optimize.Minimize(problem, x0, nil, &optimize.LBFGS{})
		if err != nil {
			g.logger.Debug("training attempt failed",
				zap.Int("try", try),
				zap.Error(err),
			)
			continue
		}
		best.Tries++
		if result.F < best.LogPost {
			best.LogPost = result.F
			best.Theta = append([]float64(nil), result.Location.X...)
		}
	}
	if best.Theta == nil {
		return nil, opErr(op, fmt.Errorf("all %d attempts failed: %w", nTries, ErrNotPositiveDefinite))
	}
	if err := g.Fit(best.Theta); err != nil {
		return nil, opErr(op, err)
	}
	g.logger.Debug("training complete",
		zap.Float64s("theta", best.Theta),
		zap.Float64("neg_log_posterior", best.LogPost),
		zap.Int("converged_tries", best.Tries),
	)
	return best, nil
}
