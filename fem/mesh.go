// Package fem is the finite-element side of the bridge: meshes built over a
// distributed topology, Lagrange function spaces and fields on them, and the
// adaptive operations that round-trip through the serial mesh on worker 0.
package fem

import (
	"github.com/notargets/meshbridge/comm"
	"github.com/notargets/meshbridge/plex"
	"github.com/notargets/meshbridge/reconcile"
	"github.com/notargets/meshbridge/reference"
	"github.com/notargets/meshbridge/serial"
	"github.com/notargets/meshbridge/sf"
	"github.com/rs/zerolog"
)

// Adaptive is implemented by meshes that can be refined from a marking
// field and curved to higher order.
type Adaptive interface {
	RefineMarkedElements(mark *Function) (*Mesh, error)
	CurveField(order int) (*Function, error)
}

var _ Adaptive = (*Mesh)(nil)

// Capabilities records which adaptive operations a mesh supports. Both
// need the serial mesh the topology was distributed from.
type Capabilities struct {
	Refinement bool
	Curving    bool
}

// Mesh is one worker's finite-element mesh.
type Mesh struct {
	Name     string
	Topology *plex.Topology

	// Coordinates is the vector CG1 coordinate field.
	Coordinates *Function

	// SerialMesh is authoritative on worker 0; other workers hold an empty
	// placeholder. Nil for meshes built from a bare topology.
	SerialMesh *serial.Mesh

	// SFBCInv routes cell data back to the serial mesh; nil on one worker.
	SFBCInv *sf.StarForest

	caps        Capabilities
	coordinator *comm.Coordinator
	reconciler  *reconcile.Reconciler
	builder     *Builder
	log         zerolog.Logger
}

// The accessors below read through to the distributed topology. The
// geometric dimension is the coordinate dimension, which may exceed the
// topological one.
func (m *Mesh) Comm() comm.Comm                   { return m.Topology.Comm }
func (m *Mesh) NumCells() int                     { return m.Topology.NumCells() }
func (m *Mesh) CellType() reference.GeometryType  { return m.Topology.CellType }
func (m *Mesh) TopologicalDimension() int         { return m.Topology.Dim }
func (m *Mesh) GeometricDimension() int           { return m.Topology.GetCoordinateDim() }
func (m *Mesh) Capabilities() Capabilities        { return m.caps }
func (m *Mesh) Coordinator() *comm.Coordinator    { return m.coordinator }
func (m *Mesh) Reconciler() *reconcile.Reconciler { return m.reconciler }
