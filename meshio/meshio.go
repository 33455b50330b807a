// Package meshio reads tetrahedral meshes from Gambit neutral, Gmsh and SU2
// files through gocfd and partitions them with gocfd's METIS binding.
package meshio

import (
	"fmt"

	gmesh "github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/partitions"
	"github.com/notargets/meshbridge/reference"
	"github.com/notargets/meshbridge/serial"
)

// File is a mesh read from disk, kept in both representations.
type File struct {
	Path   string
	Source *gmesh.Mesh
	Serial *serial.Mesh
}

// ReadMeshFile reads a tetrahedral mesh file; the format follows from the
// file extension.
func ReadMeshFile(path string) (*File, error) {
	src, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mesh %s: %w", path, err)
	}
	sm, err := FromGocfd(src)
	if err != nil {
		return nil, fmt.Errorf("read mesh %s: %w", path, err)
	}
	return &File{Path: path, Source: src, Serial: sm}, nil
}

// FromGocfd converts a gocfd mesh of tetrahedra into a serial mesh with the
// same vertex and element numbering.
func FromGocfd(src *gmesh.Mesh) (*serial.Mesh, error) {
	if src == nil {
		return nil, fmt.Errorf("no mesh: %w", mberrors.ErrUnrecognizedMeshFormat)
	}
	sm := serial.NewMesh(3)
	for i, x := range src.Vertices {
		if _, err := sm.AddPoint(x...); err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	for k := 0; k < src.NumElements; k++ {
		verts := src.EtoV[k]
		if len(verts) != reference.Tet.NumVertices() {
			return nil, fmt.Errorf("element %d has %d vertices, only tetrahedra are read: %w",
				k, len(verts), mberrors.ErrUnsupported)
		}
		if _, err := sm.AddElement(reference.Tet, verts...); err != nil {
			return nil, fmt.Errorf("element %d: %w", k, err)
		}
	}
	return sm, nil
}

// MetisPartitioner partitions the dual graph of a mesh read by
// ReadMeshFile with METIS.
type MetisPartitioner struct {
	Source *gmesh.Mesh

	// ImbalanceFactor bounds the largest part relative to the mean,
	// 1.05 when zero.
	ImbalanceFactor float32
	// Objective is "cut" or "vol", "vol" when empty.
	Objective string
}

var _ partitions.GraphPartitioner = (*MetisPartitioner)(nil)

// NewMetisPartitioner returns a partitioner for the mesh of f.
func NewMetisPartitioner(f *File) *MetisPartitioner {
	return &MetisPartitioner{Source: f.Source}
}

// PartitionGraph implements partitions.GraphPartitioner. The connectivity
// must describe the source mesh cell for cell.
func (mp *MetisPartitioner) PartitionGraph(mesh *partitions.MeshConnectivity, numPartitions int) ([]int, error) {
	if mp.Source == nil {
		return nil, fmt.Errorf("metis partitioner has no source mesh: %w", mberrors.ErrConfig)
	}
	if mesh.NumElements != mp.Source.NumElements {
		return nil, fmt.Errorf("metis partitioner: %d cells for a source mesh of %d: %w",
			mesh.NumElements, mp.Source.NumElements, mberrors.ErrTopologyMismatch)
	}
	imbalance := mp.ImbalanceFactor
	if imbalance == 0 {
		imbalance = 1.05
	}
	objective := mp.Objective
	if objective == "" {
		objective = "vol"
	}
	cfg := &gmesh.PartitionConfig{
		NumPartitions:    int32(numPartitions),
		ImbalanceFactor:  imbalance,
		UseEdgeWeights:   true,
		UseVertexWeights: true,
		Objective:        objective,
	}
	if err := gmesh.NewMeshPartitioner(mp.Source, cfg).Partition(); err != nil {
		return nil, fmt.Errorf("metis partitioner: %w", err)
	}
	return append([]int(nil), mp.Source.EToP...), nil
}
