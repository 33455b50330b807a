package serial

import (
	"math"

	"github.com/notargets/meshbridge/reference"
)

// The builders below generate small structured meshes. They panic on
// internal inconsistencies since their inputs are fully determined.

// NewRectangle meshes [0,lx]x[0,ly] with nx*ny squares, each cut into two
// triangles along its (i,j)-(i+1,j+1) diagonal.
func NewRectangle(nx, ny int, lx, ly float64) *Mesh {
	m := NewMesh(2)
	id := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			mustPoint(m.AddPoint(lx*float64(i)/float64(nx), ly*float64(j)/float64(ny)))
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b, c, d := id(i, j), id(i+1, j), id(i+1, j+1), id(i, j+1)
			mustElement(m.AddElement(reference.Tri, a, b, c))
			mustElement(m.AddElement(reference.Tri, a, c, d))
		}
	}
	return m
}

// NewQuadRectangle meshes [0,lx]x[0,ly] with nx*ny quadrilaterals.
func NewQuadRectangle(nx, ny int, lx, ly float64) *Mesh {
	m := NewMesh(2)
	id := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			mustPoint(m.AddPoint(lx*float64(i)/float64(nx), ly*float64(j)/float64(ny)))
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			mustElement(m.AddElement(reference.Rectangle, id(i, j), id(i+1, j), id(i+1, j+1), id(i, j+1)))
		}
	}
	return m
}

// NewDisk approximates the disk of radius r centred at the origin by a fan
// of `sides` triangles around the centre, with the circle as geometry.
func NewDisk(sides int, r float64) *Mesh {
	m := NewMesh(2)
	mustPoint(m.AddPoint(0, 0))
	for k := 0; k < sides; k++ {
		theta := 2 * math.Pi * float64(k) / float64(sides)
		mustPoint(m.AddPoint(r*math.Cos(theta), r*math.Sin(theta)))
	}
	for k := 0; k < sides; k++ {
		mustElement(m.AddElement(reference.Tri, 0, 1+k, 1+(k+1)%sides))
	}
	m.Geometry = Circle{Radius: r}
	return m
}

// NewBall approximates the ball of radius r centred at the origin by the
// eight tetrahedra joining the centre to the octants of the inscribed
// octahedron, with the sphere as geometry.
func NewBall(r float64) *Mesh {
	m := NewMesh(3)
	mustPoint(m.AddPoint(0, 0, 0))
	axes := [][]float64{{r, 0, 0}, {-r, 0, 0}, {0, r, 0}, {0, -r, 0}, {0, 0, r}, {0, 0, -r}}
	for _, p := range axes {
		mustPoint(m.AddPoint(p...))
	}
	for _, x := range []int{1, 2} {
		for _, y := range []int{3, 4} {
			for _, z := range []int{5, 6} {
				mustElement(m.AddElement(reference.Tet, 0, x, y, z))
			}
		}
	}
	m.Geometry = Sphere{Radius: r}
	return m
}

// NewBox meshes [0,lx]x[0,ly]x[0,lz] with nx*ny*nz hexahedra.
func NewBox(nx, ny, nz int, lx, ly, lz float64) *Mesh {
	m := NewMesh(3)
	id := func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				mustPoint(m.AddPoint(lx*float64(i)/float64(nx), ly*float64(j)/float64(ny),
					lz*float64(k)/float64(nz)))
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				mustElement(m.AddElement(reference.Hex,
					id(i, j, k), id(i+1, j, k), id(i+1, j+1, k), id(i, j+1, k),
					id(i, j, k+1), id(i+1, j, k+1), id(i+1, j+1, k+1), id(i, j+1, k+1)))
			}
		}
	}
	return m
}

// NewInterval meshes [0,l] with n segments.
func NewInterval(n int, l float64) *Mesh {
	m := NewMesh(1)
	for i := 0; i <= n; i++ {
		mustPoint(m.AddPoint(l * float64(i) / float64(n)))
	}
	for i := 0; i < n; i++ {
		mustElement(m.AddElement(reference.Line, i, i+1))
	}
	return m
}

func mustPoint(_ int, err error) {
	if err != nil {
		panic(err)
	}
}

func mustElement(_ *Element, err error) {
	if err != nil {
		panic(err)
	}
}
