// Package densegp fits a dense Gaussian process emulator to a fixed set
// of training inputs and scalar targets and predicts mean and variance
// at new input points.
//
// The emulator is deliberately narrow: the mean function is fixed to
// zero, the covariance is the squared exponential kernel with one log
// length scale per input dimension plus a log variance, and the nugget
// (the small diagonal term that keeps the covariance matrix positive
// definite) follows one of three policies: adaptive, fit, or fixed.
// Within that scope it computes the full machinery exactly: the n×n
// covariance matrix, its Cholesky factorization, the negative
// log-posterior and its hyperparameter gradient, and batched predictive
// means, variances, and mean gradients from the cached factor.
//
// All dense linear algebra goes through gonum; linear systems are
// solved against the Cholesky factor, never by explicit inversion.
package densegp
