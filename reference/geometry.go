package reference

import "fmt"

// GeometryType identifies the shape of an element
type GeometryType uint8

const (
	// 3D element types
	Tet     GeometryType = iota // Tetrahedron
	Hex                         // Hexahedron
	Prism                       // Triangular prism
	Pyramid                     // Square-based pyramid

	// 2D element types
	Tri       // Triangle
	Rectangle // Rectangle/Quadrilateral

	// 1D element type
	Line // Line segment
)

func (g GeometryType) String() string {
	switch g {
	case Tet:
		return "Tet"
	case Hex:
		return "Hex"
	case Prism:
		return "Prism"
	case Pyramid:
		return "Pyramid"
	case Tri:
		return "Tri"
	case Rectangle:
		return "Rectangle"
	case Line:
		return "Line"
	}
	return fmt.Sprintf("GeometryType(%d)", uint8(g))
}

// Dimension returns the topological dimension of the shape.
func (g GeometryType) Dimension() int {
	switch g {
	case Line:
		return 1
	case Tri, Rectangle:
		return 2
	default:
		return 3
	}
}

// NumVertices returns the number of corner vertices.
func (g GeometryType) NumVertices() int {
	switch g {
	case Tet:
		return 4
	case Hex:
		return 8
	case Prism:
		return 6
	case Pyramid:
		return 5
	case Tri:
		return 3
	case Rectangle:
		return 4
	case Line:
		return 2
	}
	return 0
}

func (g GeometryType) IsSimplex() bool {
	return g == Tet || g == Tri || g == Line
}

// SimplexOfDim returns the simplex shape of topological dimension d.
func SimplexOfDim(d int) (GeometryType, error) {
	switch d {
	case 1:
		return Line, nil
	case 2:
		return Tri, nil
	case 3:
		return Tet, nil
	}
	return 0, fmt.Errorf("no simplex of dimension %d", d)
}
