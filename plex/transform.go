package plex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/reference"
)

// Transform is a structural rewrite of a plex. The plex is set with SetDM,
// SetUp validates it and Apply returns the transformed copy.
type Transform interface {
	SetDM(p *Plex)
	SetUp() error
	Apply() (*Plex, error)
}

// TransformByName returns a registered transform.
func TransformByName(name string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "refine_to_box", "box", "refinetobox":
		return &RefineToBox{}, nil
	case "refine_regular", "regular":
		return &RefineRegular{}, nil
	}
	return nil, fmt.Errorf("unknown transform %q: %w", name, mberrors.ErrConfig)
}

// subdivider accumulates new vertices at barycentres of sub-simplices,
// shared between cells through their sorted vertex lists.
type subdivider struct {
	out   *Plex
	index map[string]int
}

func newSubdivider(p *Plex, cellType reference.GeometryType) *subdivider {
	out := &Plex{Dim: p.Dim, CoordDim: p.CoordDim, CellType: cellType}
	out.Coords = make([][]float64, len(p.Coords))
	for i, x := range p.Coords {
		out.Coords[i] = append([]float64(nil), x...)
	}
	return &subdivider{out: out, index: make(map[string]int)}
}

// at returns the vertex at the barycentre of verts, creating it once.
func (s *subdivider) at(verts ...int) int {
	if len(verts) == 1 {
		return verts[0]
	}
	sorted := append([]int(nil), verts...)
	sort.Ints(sorted)
	key := fmt.Sprint(sorted)
	if id, ok := s.index[key]; ok {
		return id
	}
	x := make([]float64, s.out.CoordDim)
	for _, v := range verts {
		for c := range x {
			x[c] += s.out.Coords[v][c] / float64(len(verts))
		}
	}
	s.out.Coords = append(s.out.Coords, x)
	s.index[key] = len(s.out.Coords) - 1
	return s.index[key]
}

func (s *subdivider) cell(verts ...int) {
	s.out.Cells = append(s.out.Cells, verts)
}

type baseTransform struct {
	dm *Plex
}

func (t *baseTransform) SetDM(p *Plex) { t.dm = p }

func (t *baseTransform) setUp(name string, supported ...reference.GeometryType) error {
	if t.dm == nil {
		return fmt.Errorf("%s: no plex set", name)
	}
	if err := t.dm.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, g := range supported {
		if t.dm.CellType == g {
			return nil
		}
	}
	return fmt.Errorf("%s of %v cells: %w", name, t.dm.CellType, mberrors.ErrUnsupported)
}

// RefineToBox splits every simplex into boxes around its vertices:
// a triangle into three quadrilaterals, a tetrahedron into four hexahedra.
type RefineToBox struct {
	baseTransform
}

func (t *RefineToBox) SetUp() error {
	return t.setUp("refine_to_box", reference.Tri, reference.Tet)
}

func (t *RefineToBox) Apply() (*Plex, error) {
	if err := t.SetUp(); err != nil {
		return nil, err
	}
	out := reference.Rectangle
	if t.dm.CellType == reference.Tet {
		out = reference.Hex
	}
	s := newSubdivider(t.dm, out)
	for _, c := range t.dm.Cells {
		switch len(c) {
		case 3:
			g := s.at(c...)
			for i := 0; i < 3; i++ {
				v, next, prev := c[i], c[(i+1)%3], c[(i+2)%3]
				s.cell(v, s.at(v, next), g, s.at(v, prev))
			}
		case 4:
			g := s.at(c...)
			for i := 0; i < 4; i++ {
				v := c[i]
				var o []int
				for j := 0; j < 4; j++ {
					if j != i {
						o = append(o, c[j])
					}
				}
				p, q, r := o[0], o[1], o[2]
				s.cell(v, s.at(v, p), s.at(v, p, q), s.at(v, q),
					s.at(v, r), s.at(v, p, r), g, s.at(v, q, r))
			}
		}
	}
	return s.out, nil
}

// RefineRegular splits every simplex into self-similar children: a
// triangle into four, a tetrahedron into eight with the inner octahedron
// cut along one diagonal.
type RefineRegular struct {
	baseTransform
}

func (t *RefineRegular) SetUp() error {
	return t.setUp("refine_regular", reference.Tri, reference.Tet)
}

func (t *RefineRegular) Apply() (*Plex, error) {
	if err := t.SetUp(); err != nil {
		return nil, err
	}
	s := newSubdivider(t.dm, t.dm.CellType)
	for _, c := range t.dm.Cells {
		switch len(c) {
		case 3:
			a, b, cc := c[0], c[1], c[2]
			mab, mbc, mca := s.at(a, b), s.at(b, cc), s.at(cc, a)
			s.cell(a, mab, mca)
			s.cell(mab, b, mbc)
			s.cell(mca, mbc, cc)
			s.cell(mab, mbc, mca)
		case 4:
			a, b, cc, d := c[0], c[1], c[2], c[3]
			mab, mac, mad := s.at(a, b), s.at(a, cc), s.at(a, d)
			mbc, mbd, mcd := s.at(b, cc), s.at(b, d), s.at(cc, d)
			s.cell(a, mab, mac, mad)
			s.cell(mab, b, mbc, mbd)
			s.cell(mac, mbc, cc, mcd)
			s.cell(mad, mbd, mcd, d)
			s.cell(mac, mbd, mab, mbc)
			s.cell(mac, mbd, mbc, mcd)
			s.cell(mac, mbd, mcd, mad)
			s.cell(mac, mbd, mad, mab)
		}
	}
	return s.out, nil
}
