package densegp

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Panic messages for misuse of low-level helpers. Exported entry
// points validate and return errors instead.
const (
	badInputLength = "densegp: input length mismatch"
	badHyperLength = "densegp: hyperparameter length mismatch"
	badStorage     = "densegp: bad storage length"
)

// GP is a dense Gaussian process emulator over a fixed training set.
// The mean function is fixed to zero; the covariance is the squared
// exponential kernel. Training data is immutable after construction.
//
// A GP is safe for concurrent use: Fit serializes against other fits,
// and predictions and accessors read one complete factorization
// snapshot for their whole call.
type GP struct {
	kernel Kernel
	nugget Nugget
	priors []Prior
	logger *zap.Logger

	inputs  *mat.Dense // n×dim training inputs
	targets []float64  // length-n training targets
	dim     int

	mu   sync.RWMutex
	post *posterior // nil until the first successful Fit
}

// Option configures a GP at construction.
type Option func(*GP)

// WithKernel sets the covariance kernel. Anything other than
// SquaredExponential is rejected by New.
func WithKernel(k Kernel) Option {
	return func(g *GP) { g.kernel = k }
}

// WithNugget sets the nugget policy. The default is adaptive.
func WithNugget(n Nugget) Option {
	return func(g *GP) { g.nugget = n }
}

// WithPriors attaches per-hyperparameter priors, in theta order. nil
// entries are flat. Fewer priors than hyperparameters leaves the
// remainder flat; more is a construction error.
func WithPriors(priors ...Prior) Option {
	return func(g *GP) { g.priors = priors }
}

// WithLogger sets the structured logger. The default is a no-op.
func WithLogger(l *zap.Logger) Option {
	return func(g *GP) { g.logger = l }
}

// New validates the training data and constructs an emulator. inputs
// is an n×D matrix of input vectors and targets the matching length-n
// scalar outputs; both are copied.
func New(inputs mat.Matrix, targets []float64, opts ...Option) (*GP, error) {
	const op = "new"
	if inputs == nil {
		return nil, opErr(op, shapeErr("inputs matrix is nil"))
	}
	n, dim := inputs.Dims()
	if n < 1 || dim < 1 {
		return nil, opErr(op, shapeErr("inputs is %d×%d, need at least one sample and one dimension", n, dim))
	}
	if len(targets) != n {
		return nil, opErr(op, shapeErr("targets has length %d, want %d", len(targets), n))
	}

	g := &GP{
		kernel:  SquaredExponential{},
		nugget:  AdaptiveNugget(),
		logger:  zap.NewNop(),
		inputs:  mat.DenseCopyOf(inputs),
		targets: append([]float64(nil), targets...),
		dim:     dim,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.kernel == nil {
		return nil, opErr(op, fmt.Errorf("kernel must not be nil"))
	}
	if _, ok := g.kernel.(SquaredExponential); !ok {
		return nil, opErr(op, fmt.Errorf("kernel must be SquaredExponential, got %T", g.kernel))
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if len(g.priors) > g.NParams() {
		return nil, opErr(op, shapeErr("%d priors for %d hyperparameters", len(g.priors), g.NParams()))
	}
	return g, nil
}

// Fit factorizes the covariance matrix at theta and caches the
// resulting posterior state. On failure the previous state, if any, is
// left in place and the error is returned; it is never served silently
// for the failed theta.
func (g *GP) Fit(theta []float64) error {
	post, err := g.posteriorAt(theta)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.post = post
	g.mu.Unlock()
	g.logger.Debug("emulator fit",
		zap.Float64s("theta", post.theta),
		zap.Float64("neg_log_posterior", post.logPost),
		zap.Float64("nugget", post.nugget),
	)
	return nil
}

// snapshot returns the current factorization state, or ErrNotFit.
func (g *GP) snapshot() (*posterior, error) {
	g.mu.RLock()
	post := g.post
	g.mu.RUnlock()
	if post == nil {
		return nil, ErrNotFit
	}
	return post, nil
}

// ensureFit returns a snapshot at theta, refitting when the cached
// theta differs beyond tolerance.
func (g *GP) ensureFit(theta []float64) (*posterior, error) {
	g.mu.RLock()
	post := g.post
	g.mu.RUnlock()
	if post != nil && allClose(theta, post.theta) {
		return post, nil
	}
	if err := g.Fit(theta); err != nil {
		return nil, err
	}
	return g.snapshot()
}

// LogPosterior returns the negative log-posterior at theta, refitting
// if theta differs from the cached hyperparameters.
func (g *GP) LogPosterior(theta []float64) (float64, error) {
	post, err := g.ensureFit(theta)
	if err != nil {
		return 0, err
	}
	return post.logPost, nil
}

// LogPostDeriv returns the gradient of the negative log-posterior with
// respect to the hyperparameters, refitting if theta differs from the
// cached hyperparameters.
func (g *GP) LogPostDeriv(theta []float64) ([]float64, error) {
	post, err := g.ensureFit(theta)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), post.grad...), nil
}

// LogPostHessian is not supported. It always returns
// ErrNotImplemented rather than a silently wrong numeric result.
func (g *GP) LogPostHessian(theta []float64) (*mat.SymDense, error) {
	return nil, opErr("hessian", ErrNotImplemented)
}

// Inputs returns a copy of the n×D training input matrix.
func (g *GP) Inputs() *mat.Dense {
	return mat.DenseCopyOf(g.inputs)
}

// Targets returns a copy of the training targets.
func (g *GP) Targets() []float64 {
	return append([]float64(nil), g.targets...)
}

// N returns the number of training examples.
func (g *GP) N() int { return len(g.targets) }

// D returns the input dimension.
func (g *GP) D() int { return g.dim }

// NParams returns the hyperparameter count: D log length scales plus
// one log variance, plus one log nugget under the fit policy.
func (g *GP) NParams() int {
	return g.kernel.NumHyper(g.dim) + g.nugget.extraParams()
}

// NuggetType returns the nugget policy label: "adaptive", "fit", or
// "fixed".
func (g *GP) NuggetType() string { return g.nugget.Type() }

// NuggetValue returns the diagonal term in effect: the fixed constant
// when the policy is fixed, otherwise the value discovered or fit by
// the most recent Fit. ok is false when the policy is not fixed and no
// fit has succeeded yet.
func (g *GP) NuggetValue() (v float64, ok bool) {
	if g.nugget.kind == nuggetFixed {
		return g.nugget.value, true
	}
	g.mu.RLock()
	post := g.post
	g.mu.RUnlock()
	if post == nil {
		return 0, false
	}
	return post.nugget, true
}

// Theta returns a copy of the current hyperparameters. ok is false
// before the first successful Fit.
func (g *GP) Theta() (theta []float64, ok bool) {
	g.mu.RLock()
	post := g.post
	g.mu.RUnlock()
	if post == nil {
		return nil, false
	}
	return append([]float64(nil), post.theta...), true
}

// KMatrix returns the factorized covariance matrix (including the
// nugget diagonal) reconstructed by inverting the cached inverse. The
// round trip through the inverse is numerically lossy for
// ill-conditioned covariance matrices; callers needing the exact
// matrix should rebuild it from the kernel.
func (g *GP) KMatrix() (*mat.SymDense, error) {
	const op = "kmatrix"
	post, err := g.snapshot()
	if err != nil {
		return nil, opErr(op, err)
	}
	n := len(g.targets)
	invQ := mat.NewSymDense(n, nil)
	if err := post.chol.InverseTo(invQ); err != nil {
		return nil, opErr(op, err)
	}
	var chol mat.Cholesky
	if !chol.Factorize(invQ) {
		return nil, opErr(op, ErrNotPositiveDefinite)
	}
	k := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(k); err != nil {
		return nil, opErr(op, err)
	}
	return k, nil
}

// String describes the model.
func (g *GP) String() string {
	return fmt.Sprintf("Gaussian process with %d training examples and %d input variables",
		len(g.targets), g.dim)
}
