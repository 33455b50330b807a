package reference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const collapseTol = 1e-14

// Simplex2DP evaluates the 2D orthonormal polynomial of order (i,j) on the
// biunit triangle at (R,S).
func Simplex2DP(R, S []float64, i, j int) []float64 {
	a, b := RStoAB(R, S)
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)

	P := make([]float64, len(R))
	for ii := range h1 {
		P[ii] = math.Sqrt2 * h1[ii] * h2[ii] * pow(1-b[ii], i)
	}
	return P
}

// Simplex3DP evaluates the 3D orthonormal polynomial of order (i,j,k) on
// the biunit tetrahedron at (R,S,T).
func Simplex3DP(R, S, T []float64, i, j, k int) []float64 {
	a, b, c := RSTtoABC(R, S, T)
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)
	h3 := JacobiP(c, float64(2*(i+j)+2), 0, k)

	P := make([]float64, len(R))
	for n := range P {
		P[n] = 2 * math.Sqrt2 * h1[n] * h2[n] * pow(1-b[n], i) * h3[n] * pow(1-c[n], i+j)
	}
	return P
}

// RStoAB converts from (r,s) to collapsed (a,b) coordinates
func RStoAB(R, S []float64) (a, b []float64) {
	Np := len(R)
	a = make([]float64, Np)
	b = make([]float64, Np)
	for n := 0; n < Np; n++ {
		if math.Abs(1-S[n]) > collapseTol {
			a[n] = 2*(1+R[n])/(1-S[n]) - 1
		} else {
			a[n] = -1
		}
		b[n] = S[n]
	}
	return
}

// RSTtoABC converts from (r,s,t) to collapsed (a,b,c) coordinates
func RSTtoABC(R, S, T []float64) (a, b, c []float64) {
	Np := len(R)
	a, b, c = make([]float64, Np), make([]float64, Np), make([]float64, Np)
	for n := 0; n < Np; n++ {
		if math.Abs(S[n]+T[n]) > collapseTol {
			a[n] = 2*(1+R[n])/(-S[n]-T[n]) - 1
		} else {
			a[n] = -1
		}
		if math.Abs(1-T[n]) > collapseTol {
			b[n] = 2*(1+S[n])/(1-T[n]) - 1
		} else {
			b[n] = -1
		}
		c[n] = T[n]
	}
	return
}

// Vandermonde returns V[i][m] = psi_m(node i) for the orthonormal basis of
// the given order, nodes given in UFC reference coordinates.
func Vandermonde(g GeometryType, order int, nodes [][]float64) (*mat.Dense, error) {
	if err := checkSimplex(g); err != nil {
		return nil, err
	}
	d := g.Dimension()
	biunit := make([][]float64, d)
	for k := range biunit {
		biunit[k] = make([]float64, len(nodes))
		for n, p := range nodes {
			if len(p) != d {
				return nil, fmt.Errorf("node %d has %d coordinates, want %d", n, len(p), d)
			}
			biunit[k][n] = 2*p[k] - 1
		}
	}

	V := mat.NewDense(len(nodes), NumLagrangeNodes(g, order), nil)
	sk := 0
	switch d {
	case 1:
		for i := 0; i <= order; i++ {
			V.SetCol(sk, JacobiP(biunit[0], 0, 0, i))
			sk++
		}
	case 2:
		for i := 0; i <= order; i++ {
			for j := 0; j <= order-i; j++ {
				V.SetCol(sk, Simplex2DP(biunit[0], biunit[1], i, j))
				sk++
			}
		}
	case 3:
		for i := 0; i <= order; i++ {
			for j := 0; j <= order-i; j++ {
				for k := 0; k <= order-i-j; k++ {
					V.SetCol(sk, Simplex3DP(biunit[0], biunit[1], biunit[2], i, j, k))
					sk++
				}
			}
		}
	}
	return V, nil
}

// LagrangeBasis is the nodal basis attached to a node set on a reference
// simplex.
type LagrangeBasis struct {
	Type  GeometryType
	Order int
	Nodes [][]float64
	Vinv  *mat.Dense
}

// NewLagrangeBasis builds the nodal basis dual to nodes, which must hold
// exactly NumLagrangeNodes(g, order) unisolvent points.
func NewLagrangeBasis(g GeometryType, order int, nodes [][]float64) (*LagrangeBasis, error) {
	if want := NumLagrangeNodes(g, order); len(nodes) != want {
		return nil, fmt.Errorf("lagrange basis %v order %d: got %d nodes, want %d",
			g, order, len(nodes), want)
	}
	V, err := Vandermonde(g, order, nodes)
	if err != nil {
		return nil, err
	}
	vinv := mat.NewDense(len(nodes), len(nodes), nil)
	if err := vinv.Inverse(V); err != nil {
		return nil, fmt.Errorf("failed to invert Vandermonde matrix: %v", err)
	}
	return &LagrangeBasis{Type: g, Order: order, Nodes: nodes, Vinv: vinv}, nil
}

// Eval returns the value of every nodal basis function at xi.
func (lb *LagrangeBasis) Eval(xi []float64) []float64 {
	V, err := Vandermonde(lb.Type, lb.Order, [][]float64{xi})
	if err != nil {
		panic(err)
	}
	var w mat.VecDense
	w.MulVec(lb.Vinv.T(), V.RowView(0))
	out := make([]float64, w.Len())
	for i := range out {
		out[i] = w.AtVec(i)
	}
	return out
}

// Interpolate evaluates sum_i w_i(xi) * values[i] component-wise.
func (lb *LagrangeBasis) Interpolate(values [][]float64, xi []float64) []float64 {
	w := lb.Eval(xi)
	out := make([]float64, len(values[0]))
	for i, wi := range w {
		for c := range out {
			out[c] += wi * values[i][c]
		}
	}
	return out
}

// pow computes x^n for integer n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
