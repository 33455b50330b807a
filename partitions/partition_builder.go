package partitions

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/meshbridge/plex"
	"github.com/notargets/meshbridge/reference"
)

// PartitionBuilder constructs partitions from mesh connectivity
type PartitionBuilder struct {
	// Mesh connectivity
	Mesh *MeshConnectivity

	// Partitioning parameters
	NumPartitions       int // Explicit partition count; derived from TargetPartitionSize when zero
	TargetPartitionSize int // Desired elements per partition
	Strategy            PartitionStrategy

	// Graph partitions the dual graph for GraphPartition
	Graph GraphPartitioner

	// EToP supplies the assignment for Precomputed
	EToP []int
}

// MeshConnectivity provides the mesh topology needed for partitioning
type MeshConnectivity struct {
	NumElements  int
	ElementTypes []reference.GeometryType
	EToV         [][]int     // Element-to-vertex connectivity
	Vertices     [][]float64 // Vertex coordinates
}

// GraphPartitioner splits a mesh into balanced parts minimising the cut of
// its dual graph.
type GraphPartitioner interface {
	PartitionGraph(mesh *MeshConnectivity, numPartitions int) ([]int, error)
}

// PartitionStrategy defines how elements are grouped
type PartitionStrategy int

const (
	// Simple strategies
	BlockPartition PartitionStrategy = iota // Consecutive elements
	RoundRobin                              // Distribute cyclically

	// Graph-based strategies
	GraphPartition    // Use METIS or similar
	SpaceFillingCurve // Morton curve ordering of element centroids

	// Precomputed takes the assignment from the builder's EToP
	Precomputed
)

func (s PartitionStrategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round_robin"
	case GraphPartition:
		return "graph"
	case SpaceFillingCurve:
		return "space_filling_curve"
	case Precomputed:
		return "precomputed"
	}
	return fmt.Sprintf("PartitionStrategy(%d)", int(s))
}

// ConnectivityFromPlex extracts the partitioning input of a base plex.
func ConnectivityFromPlex(p *plex.Plex) *MeshConnectivity {
	mc := &MeshConnectivity{
		NumElements:  p.NumCells(),
		ElementTypes: make([]reference.GeometryType, p.NumCells()),
		EToV:         p.Cells,
		Vertices:     p.Coords,
	}
	for i := range mc.ElementTypes {
		mc.ElementTypes[i] = p.CellType
	}
	return mc
}

// BuildPartitions creates a partition layout from mesh connectivity
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.Mesh == nil {
		return nil, fmt.Errorf("partition builder has no mesh")
	}
	// Determine number of partitions needed
	numPartitions := pb.calculateNumPartitions()

	// Partition the elements
	eToP, err := pb.partitionElements(numPartitions)
	if err != nil {
		return nil, err
	}

	// Create partition structures
	partitions := pb.createPartitions(eToP, numPartitions)

	// Create the layout
	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      pb.calculateKpartMax(partitions),
		TotalElements: pb.Mesh.NumElements,
		NumPartitions: numPartitions,
		EToP:          eToP,
	}

	// Validate the layout
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}

	return layout, nil
}

// calculateNumPartitions determines optimal partition count
func (pb *PartitionBuilder) calculateNumPartitions() int {
	if pb.NumPartitions > 0 {
		return pb.NumPartitions
	}
	if pb.TargetPartitionSize <= 0 {
		return 1
	}

	// Basic calculation based on target size
	numPartitions := int(math.Ceil(float64(pb.Mesh.NumElements) / float64(pb.TargetPartitionSize)))

	// Ensure at least one partition
	if numPartitions < 1 {
		numPartitions = 1
	}

	return numPartitions
}

// partitionElements assigns elements to partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) ([]int, error) {
	K := pb.Mesh.NumElements
	eToP := make([]int, K)
	if K == 0 {
		return eToP, nil
	}

	switch pb.Strategy {
	case BlockPartition:
		// Simple block partitioning
		elementsPerPartition := int(math.Ceil(float64(K) / float64(numPartitions)))
		for i := 0; i < K; i++ {
			eToP[i] = i / elementsPerPartition
			if eToP[i] >= numPartitions {
				eToP[i] = numPartitions - 1
			}
		}

	case RoundRobin:
		// Distribute elements cyclically
		for i := 0; i < K; i++ {
			eToP[i] = i % numPartitions
		}

	case GraphPartition:
		if pb.Graph == nil || numPartitions == 1 {
			// No graph partitioner available, fall back to block partitioning
			return pb.partitionWithStrategy(BlockPartition, numPartitions)
		}
		parts, err := pb.Graph.PartitionGraph(pb.Mesh, numPartitions)
		if err != nil {
			return nil, fmt.Errorf("graph partitioning failed: %w", err)
		}
		if err := checkAssignment(parts, K, numPartitions); err != nil {
			return nil, fmt.Errorf("graph partitioner: %w", err)
		}
		copy(eToP, parts)

	case SpaceFillingCurve:
		if pb.Mesh.Vertices == nil || pb.Mesh.EToV == nil {
			return pb.partitionWithStrategy(BlockPartition, numPartitions)
		}
		order := mortonOrder(pb.Mesh)
		block, err := pb.partitionWithStrategy(BlockPartition, numPartitions)
		if err != nil {
			return nil, err
		}
		for rank, elem := range order {
			eToP[elem] = block[rank]
		}

	case Precomputed:
		if err := checkAssignment(pb.EToP, K, numPartitions); err != nil {
			return nil, fmt.Errorf("precomputed partition: %w", err)
		}
		copy(eToP, pb.EToP)

	default:
		// Default to block partitioning
		return pb.partitionWithStrategy(BlockPartition, numPartitions)
	}

	return eToP, nil
}

// partitionWithStrategy recursively applies a different strategy
func (pb *PartitionBuilder) partitionWithStrategy(strategy PartitionStrategy, numPartitions int) ([]int, error) {
	oldStrategy := pb.Strategy
	pb.Strategy = strategy
	result, err := pb.partitionElements(numPartitions)
	pb.Strategy = oldStrategy
	return result, err
}

func checkAssignment(eToP []int, K, numPartitions int) error {
	if len(eToP) != K {
		return fmt.Errorf("EToP length %d does not match K=%d", len(eToP), K)
	}
	for k, p := range eToP {
		if p < 0 || p >= numPartitions {
			return fmt.Errorf("element %d assigned to partition %d of %d", k, p, numPartitions)
		}
	}
	return nil
}

// mortonOrder sorts elements by the Z-order key of their centroids.
func mortonOrder(mesh *MeshConnectivity) []int {
	dim := len(mesh.Vertices[0])
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	for d := range lo {
		lo[d], hi[d] = math.Inf(1), math.Inf(-1)
	}
	for _, x := range mesh.Vertices {
		for d := range x {
			lo[d] = math.Min(lo[d], x[d])
			hi[d] = math.Max(hi[d], x[d])
		}
	}
	const bits = 10
	keys := make([]uint64, mesh.NumElements)
	for k, verts := range mesh.EToV {
		var key uint64
		cells := make([]uint64, dim)
		for d := 0; d < dim; d++ {
			c := 0.0
			for _, v := range verts {
				c += mesh.Vertices[v][d]
			}
			c /= float64(len(verts))
			if hi[d] > lo[d] {
				c = (c - lo[d]) / (hi[d] - lo[d])
			}
			cells[d] = uint64(math.Min(c*(1<<bits), (1<<bits)-1))
		}
		for b := bits - 1; b >= 0; b-- {
			for d := 0; d < dim; d++ {
				key = key<<1 | (cells[d]>>uint(b))&1
			}
		}
		keys[k] = key
	}
	order := make([]int, mesh.NumElements)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return keys[order[i]] < keys[order[j]] })
	return order
}

// createPartitions builds partition structures from element assignments
func (pb *PartitionBuilder) createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)

	// Initialize partitions
	for i := range partitions {
		partitions[i] = Partition{
			ID:           i,
			Elements:     make([]int, 0),
			ElementTypes: make([]reference.GeometryType, 0),
		}
	}

	// Assign elements to partitions
	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		if pb.Mesh.ElementTypes != nil {
			partitions[part].ElementTypes = append(partitions[part].ElementTypes,
				pb.Mesh.ElementTypes[elem])
		}
		partitions[part].NumElements++
	}

	// Create element groups for mixed meshes
	for i := range partitions {
		partitions[i].TypeGroups = pb.createElementGroups(&partitions[i])
	}

	return partitions
}

// createElementGroups organizes elements by type within a partition
func (pb *PartitionBuilder) createElementGroups(p *Partition) []ElementGroup {
	if len(p.ElementTypes) == 0 {
		return nil
	}

	// Count elements by type, in first-seen order
	var order []reference.GeometryType
	typeCounts := make(map[reference.GeometryType][]int)
	for i, elemType := range p.ElementTypes {
		if _, ok := typeCounts[elemType]; !ok {
			order = append(order, elemType)
		}
		typeCounts[elemType] = append(typeCounts[elemType], i)
	}

	groups := make([]ElementGroup, 0, len(typeCounts))
	for _, elemType := range order {
		indices := typeCounts[elemType]
		groups = append(groups, ElementGroup{
			ElementType: elemType,
			Count:       len(indices),
			LocalIDs:    indices,
		})
	}

	return groups
}

// calculateKpartMax finds maximum elements across all partitions
func (pb *PartitionBuilder) calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumElements > kpartMax {
			kpartMax = p.NumElements
		}
	}
	return kpartMax
}

// PartitionStatistics computes load balance metrics
func (layout *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: layout.NumPartitions,
		MinElements:   math.MaxInt32,
		MaxElements:   0,
		AvgElements:   float64(layout.TotalElements) / float64(layout.NumPartitions),
	}

	for _, p := range layout.Partitions {
		if p.NumElements < stats.MinElements {
			stats.MinElements = p.NumElements
		}
		if p.NumElements > stats.MaxElements {
			stats.MaxElements = p.NumElements
		}
	}

	if stats.AvgElements > 0 {
		stats.Imbalance = float64(stats.MaxElements) / stats.AvgElements
	}

	return stats
}

type PartitionStats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	Imbalance     float64 // MaxElements / AvgElements
}
