package correlation

import "math"

// Matrix is a dense, square, symmetric matrix of correlation (or
// covariance-like) coefficients. No third-party linear algebra library
// appears anywhere in this codebase's dependency tree, so the handful of
// operations the correlation builder needs — Cholesky, symmetric
// eigendecomposition, matrix-vector products — are hand-rolled here on
// top of the standard library's math package alone.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix allocates an n x n matrix of zeros.
func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, data: make([]float64, n*n)}
}

// NewIdentity allocates an n x n identity matrix.
func NewIdentity(n int) *Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// N returns the matrix's dimension.
func (m *Matrix) N() int { return m.n }

// At returns the element at (i, j).
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.n+j] }

// Set assigns the element at (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.n+j] = v }

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{n: m.n, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out
}

// AddDiagonal adds lambda to every diagonal entry, in place. It is the
// jitter step of the PSD repair ladder.
func (m *Matrix) AddDiagonal(lambda float64) {
	for i := 0; i < m.n; i++ {
		m.Set(i, i, m.At(i, i)+lambda)
	}
}

// RenormalizeDiagonal rescales every entry so the diagonal reads exactly
// 1, restoring a correlation matrix's defining property after an
// eigenvalue clip or jitter pass has perturbed it.
func (m *Matrix) RenormalizeDiagonal() {
	d := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		d[i] = math.Sqrt(math.Max(m.At(i, i), 1e-300))
	}
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			m.Set(i, j, m.At(i, j)/(d[i]*d[j]))
		}
	}
}

// Cholesky attempts the lower-triangular Cholesky factorization L, where
// L*L^T == m. ok is false as soon as a diagonal pivot would require the
// square root of a negative number, which signals m is not positive
// definite.
func (m *Matrix) Cholesky() (l *Matrix, ok bool) {
	n := m.n
	l = NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := m.At(i, j)
			for k := 0; k < j; k++ {
				sum -= l.At(i, k) * l.At(j, k)
			}
			if i == j {
				if sum <= 0 {
					return nil, false
				}
				l.Set(i, j, math.Sqrt(sum))
			} else {
				l.Set(i, j, sum/l.At(j, j))
			}
		}
	}
	return l, true
}

// MulVec computes m * v.
func (m *Matrix) MulVec(v []float64) []float64 {
	out := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		var sum float64
		for j := 0; j < m.n; j++ {
			sum += m.At(i, j) * v[j]
		}
		out[i] = sum
	}
	return out
}

// Eigendecomposition computes the eigenvalues and eigenvectors of the
// symmetric matrix m using the cyclic Jacobi eigenvalue algorithm.
// eigenvectors[k] is the eigenvector for eigenvalues[k]. The algorithm
// converges quadratically and is the standard choice for small, dense
// symmetric matrices where no specialized library is available.
func (m *Matrix) Eigendecomposition() (eigenvalues []float64, eigenvectors [][]float64) {
	n := m.n
	a := m.Clone()
	v := NewIdentity(n)

	const maxSweeps = 100
	for sweep := 0; sweep < maxSweeps; sweep++ {
		off := offDiagonalNorm(a)
		if off < 1e-12 {
			break
		}
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				jacobiRotate(a, v, p, q)
			}
		}
	}

	eigenvalues = make([]float64, n)
	eigenvectors = make([][]float64, n)
	for i := 0; i < n; i++ {
		eigenvalues[i] = a.At(i, i)
		col := make([]float64, n)
		for r := 0; r < n; r++ {
			col[r] = v.At(r, i)
		}
		eigenvectors[i] = col
	}
	return eigenvalues, eigenvectors
}

func offDiagonalNorm(a *Matrix) float64 {
	var sum float64
	for i := 0; i < a.n; i++ {
		for j := i + 1; j < a.n; j++ {
			sum += a.At(i, j) * a.At(i, j)
		}
	}
	return math.Sqrt(sum)
}

// jacobiRotate zeros a.At(p, q) via a single Jacobi rotation, updating a
// in place and accumulating the rotation into v.
func jacobiRotate(a, v *Matrix, p, q int) {
	apq := a.At(p, q)
	if math.Abs(apq) < 1e-300 {
		return
	}

	app, aqq := a.At(p, p), a.At(q, q)
	theta := (aqq - app) / (2 * apq)
	t := sign(theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
	if theta == 0 {
		t = 1
	}
	c := 1 / math.Sqrt(t*t+1)
	s := t * c

	for i := 0; i < a.n; i++ {
		aip, aiq := a.At(i, p), a.At(i, q)
		a.Set(i, p, c*aip-s*aiq)
		a.Set(i, q, s*aip+c*aiq)
	}
	for j := 0; j < a.n; j++ {
		apj, aqj := a.At(p, j), a.At(q, j)
		a.Set(p, j, c*apj-s*aqj)
		a.Set(q, j, s*apj+c*aqj)
	}

	for i := 0; i < v.n; i++ {
		vip, viq := v.At(i, p), v.At(i, q)
		v.Set(i, p, c*vip-s*viq)
		v.Set(i, q, s*vip+c*viq)
	}
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
