package densegp

import (
	"fmt"
)

type nuggetKind int

const (
	nuggetAdaptive nuggetKind = iota
	nuggetFit
	nuggetFixed
)

// Nugget selects how the small positive diagonal term is added to the
// covariance matrix before factorization. It is a closed variant:
// construct one with AdaptiveNugget, FitNugget, or FixedNugget. The
// zero value is the adaptive policy.
type Nugget struct {
	kind  nuggetKind
	value float64 // fixed value; only meaningful for nuggetFixed
}

// AdaptiveNugget starts from a zero nugget and escalates it
// geometrically each time factorization fails, up to a bounded number
// of retries. The discovered value is specific to each fit and is not
// a hyperparameter.
func AdaptiveNugget() Nugget {
	return Nugget{kind: nuggetAdaptive}
}

// FitNugget treats the nugget as an extra hyperparameter, exp of the
// last entry of theta, estimated jointly with the kernel parameters.
func FitNugget() Nugget {
	return Nugget{kind: nuggetFit}
}

// FixedNugget uses the caller-supplied constant v on the diagonal.
// v must be non-negative and finite.
func FixedNugget(v float64) (Nugget, error) {
	if !(v >= 0) { // rejects negatives and NaN
		return Nugget{}, fmt.Errorf("densegp: fixed nugget must be non-negative, got %v", v)
	}
	return Nugget{kind: nuggetFixed, value: v}, nil
}

// Type returns the nugget policy label: "adaptive", "fit", or "fixed".
func (n Nugget) Type() string {
	switch n.kind {
	case nuggetAdaptive:
		return "adaptive"
	case nuggetFit:
		return "fit"
	case nuggetFixed:
		return "fixed"
	}
	panic("densegp: unknown nugget kind")
}

// extraParams returns how many entries the nugget policy appends to
// the hyperparameter vector.
func (n Nugget) extraParams() int {
	if n.kind == nuggetFit {
		return 1
	}
	return 0
}
