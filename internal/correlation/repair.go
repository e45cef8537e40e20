package correlation

import (
	"github.com/rotisserie/eris"
)

// Config tunes the positive-semi-definite repair ladder.
type Config struct {
	// EigenvalueFloor is the minimum eigenvalue a clipped matrix is
	// allowed to carry.
	EigenvalueFloor float64
	// JitterStart is the initial diagonal jitter added when eigenvalue
	// clipping alone does not recover a Cholesky-factorizable matrix.
	JitterStart float64
	// JitterGrowth multiplies the jitter after each failed attempt.
	JitterGrowth float64
	// MaxJitterAttempts bounds the escalation before giving up.
	MaxJitterAttempts int
}

// DefaultConfig matches the repair ladder this engine has always used:
// eigenvalue floor of 1e-8, jitter starting at 1e-6 and growing tenfold
// per attempt, for at most six attempts.
func DefaultConfig() Config {
	return Config{
		EigenvalueFloor:   1e-8,
		JitterStart:       1e-6,
		JitterGrowth:      10,
		MaxJitterAttempts: 6,
	}
}

// Factor produces a usable Cholesky factor for m, repairing it first if
// necessary. It tries, in order: (1) a direct Cholesky factorization, (2)
// eigenvalue clipping followed by diagonal renormalization, (3)
// escalating diagonal jitter. repaired reports whether either repair step
// fired, and minEigenvalue reports the smallest eigenvalue observed
// before any repair, for diagnostics.
func Factor(m *Matrix, cfg Config) (l *Matrix, repaired bool, minEigenvalue float64, err error) {
	if l, ok := m.Cholesky(); ok {
		eigenvalues, _ := m.Eigendecomposition()
		return l, false, minOf(eigenvalues), nil
	}

	eigenvalues, vectors := m.Eigendecomposition()
	minEigenvalue = minOf(eigenvalues)

	clipped := clipEigenvalues(m.N(), eigenvalues, vectors, cfg.EigenvalueFloor)
	clipped.RenormalizeDiagonal()
	if l, ok := clipped.Cholesky(); ok {
		return l, true, minEigenvalue, nil
	}

	jitter := cfg.JitterStart
	candidate := clipped
	for attempt := 0; attempt < cfg.MaxJitterAttempts; attempt++ {
		jittered := candidate.Clone()
		jittered.AddDiagonal(jitter)
		jittered.RenormalizeDiagonal()
		if l, ok := jittered.Cholesky(); ok {
			return l, true, minEigenvalue, nil
		}
		jitter *= cfg.JitterGrowth
	}

	return nil, true, minEigenvalue, eris.Errorf("correlation: failed to recover a positive-definite matrix after %d jitter attempts", cfg.MaxJitterAttempts)
}

// clipEigenvalues reconstructs m from its eigendecomposition with every
// eigenvalue below floor raised to floor: V * diag(max(lambda, floor)) * V^T.
func clipEigenvalues(n int, eigenvalues []float64, vectors [][]float64, floor float64) *Matrix {
	clipped := make([]float64, n)
	for i, lambda := range eigenvalues {
		if lambda < floor {
			clipped[i] = floor
		} else {
			clipped[i] = lambda
		}
	}

	out := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += vectors[k][i] * clipped[k] * vectors[k][j]
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
