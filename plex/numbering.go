package plex

import (
	"fmt"
	"sort"

	"github.com/notargets/meshbridge/reference"
)

// NumberingStrategy defines how local cells are ordered in cell arrays
type NumberingStrategy int

const (
	// NumberRCM orders cells by reverse Cuthill-McKee over facet adjacency
	NumberRCM NumberingStrategy = iota
	// NumberIdentity keeps the local cell order
	NumberIdentity
)

func (s NumberingStrategy) String() string {
	switch s {
	case NumberRCM:
		return "rcm"
	case NumberIdentity:
		return "identity"
	}
	return fmt.Sprintf("NumberingStrategy(%d)", int(s))
}

// CellNumbering builds the cell numbering of p.
func CellNumbering(p *Plex, strategy NumberingStrategy) *Section {
	switch strategy {
	case NumberIdentity:
		return Identity(p.NumCells())
	case NumberRCM:
		order := reverseCuthillMcKee(cellAdjacency(p))
		offsets := make([]int, len(order))
		for off, cell := range order {
			offsets[cell] = off
		}
		return &Section{offsets: offsets, points: order}
	}
	panic(fmt.Sprintf("unknown numbering strategy %v", strategy))
}

// facetVertices is the number of vertices cells must share to be
// neighbours.
func facetVertices(g reference.GeometryType) int {
	switch g {
	case reference.Line:
		return 1
	case reference.Tri, reference.Rectangle:
		return 2
	case reference.Tet, reference.Prism, reference.Pyramid:
		return 3
	case reference.Hex:
		return 4
	}
	return 1
}

// cellAdjacency lists, for every cell, the cells sharing a facet with it,
// ascending.
func cellAdjacency(p *Plex) [][]int {
	vertexCells := make([][]int, p.NumVertices())
	for c, verts := range p.Cells {
		for _, v := range verts {
			vertexCells[v] = append(vertexCells[v], c)
		}
	}
	need := facetVertices(p.CellType)
	adj := make([][]int, p.NumCells())
	for c, verts := range p.Cells {
		shared := make(map[int]int)
		for _, v := range verts {
			for _, o := range vertexCells[v] {
				if o != c {
					shared[o]++
				}
			}
		}
		for o, n := range shared {
			if n >= need {
				adj[c] = append(adj[c], o)
			}
		}
		sort.Ints(adj[c])
	}
	return adj
}

// reverseCuthillMcKee returns cells in RCM order. Each connected component
// starts from its lowest degree cell; ties break on cell index.
func reverseCuthillMcKee(adj [][]int) []int {
	n := len(adj)
	visited := make([]bool, n)
	order := make([]int, 0, n)
	byDegree := make([]int, n)
	for i := range byDegree {
		byDegree[i] = i
	}
	sort.SliceStable(byDegree, func(i, j int) bool {
		return len(adj[byDegree[i]]) < len(adj[byDegree[j]])
	})
	for _, start := range byDegree {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			order = append(order, c)
			var next []int
			for _, o := range adj[c] {
				if !visited[o] {
					visited[o] = true
					next = append(next, o)
				}
			}
			sort.SliceStable(next, func(i, j int) bool {
				return len(adj[next[i]]) < len(adj[next[j]])
			})
			queue = append(queue, next...)
		}
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
