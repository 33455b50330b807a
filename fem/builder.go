package fem

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/notargets/meshbridge/bridge"
	"github.com/notargets/meshbridge/comm"
	"github.com/notargets/meshbridge/config"
	"github.com/notargets/meshbridge/logging"
	"github.com/notargets/meshbridge/mberrors"
	"github.com/notargets/meshbridge/partitions"
	"github.com/notargets/meshbridge/plex"
	"github.com/notargets/meshbridge/reconcile"
	"github.com/notargets/meshbridge/serial"
	"github.com/rs/zerolog"
)

// Builder turns a serial mesh, a base plex or a distributed topology into
// a Mesh. Every worker builds with the same settings; Build is collective.
type Builder struct {
	comm      comm.Comm
	flags     config.Flags
	log       zerolog.Logger
	strategy  partitions.PartitionStrategy
	graph     partitions.GraphPartitioner
	eToP      []int
	numbering plex.NumberingStrategy
	name      string
	decimals  int
}

// Option configures a Builder.
type Option func(*Builder)

// WithFlags sets the construction flags. Without it every flag is absent.
func WithFlags(f config.Flags) Option { return func(b *Builder) { b.flags = f } }

// WithLogger sets the logger; the default writes to stderr.
func WithLogger(l zerolog.Logger) Option { return func(b *Builder) { b.log = l } }

// WithPartitionStrategy picks how worker 0 assigns base cells to workers.
// The default is block partitioning.
func WithPartitionStrategy(s partitions.PartitionStrategy) Option {
	return func(b *Builder) { b.strategy = s }
}

// WithGraphPartitioner partitions the base mesh by its dual graph.
func WithGraphPartitioner(g partitions.GraphPartitioner) Option {
	return func(b *Builder) {
		b.graph = g
		b.strategy = partitions.GraphPartition
	}
}

// WithPartition fixes the cell to worker assignment of the base mesh.
func WithPartition(eToP []int) Option {
	return func(b *Builder) {
		b.eToP = eToP
		b.strategy = partitions.Precomputed
	}
}

// WithNumbering sets the local cell numbering; reverse Cuthill-McKee by
// default.
func WithNumbering(n plex.NumberingStrategy) Option { return func(b *Builder) { b.numbering = n } }

// WithName names the mesh; by default a random name is drawn on worker 0.
func WithName(name string) Option { return func(b *Builder) { b.name = name } }

// WithMatchDecimals sets the rounding used to match curved points to
// degrees of freedom.
func WithMatchDecimals(d int) Option { return func(b *Builder) { b.decimals = d } }

// NewBuilder returns a builder on c.
func NewBuilder(c comm.Comm, opts ...Option) *Builder {
	b := &Builder{
		comm:      c,
		flags:     config.Flags{},
		log:       logging.Default(),
		strategy:  partitions.BlockPartition,
		numbering: plex.NumberRCM,
		decimals:  DefaultMatchDecimals,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewMesh builds a mesh from input with the given flags. Collective.
func NewMesh(c comm.Comm, input any, flags config.Flags, opts ...Option) (*Mesh, error) {
	return NewBuilder(c, append([]Option{WithFlags(flags)}, opts...)...).Build(input)
}

// Build wraps input, which is a *serial.Mesh, an undistributed *plex.Plex
// or an already distributed *plex.Topology. Serial meshes and base plexes
// are read on worker 0 only, and are pre-processed by the flags,
// partitioned and distributed. Collective.
func (b *Builder) Build(input any) (*Mesh, error) {
	var err error
	switch input.(type) {
	case *serial.Mesh, *plex.Plex, *plex.Topology:
	default:
		err = fmt.Errorf("input of type %T: %w", input, mberrors.ErrUnrecognizedMeshFormat)
	}
	if err == nil {
		err = b.flags.Validate()
	}
	if err = comm.Agree(b.comm, err); err != nil {
		return nil, err
	}

	var mm *bridge.MeshMapping
	switch in := input.(type) {
	case *plex.Topology:
		if len(b.flags) > 0 {
			b.log.Debug().Int("rank", b.comm.Rank()).Msg("construction flags ignored for a distributed topology")
		}
		return b.createFromTopology(in, nil)
	case *serial.Mesh:
		if _, err = b.purify(in); err != nil {
			return nil, err
		}
		if mm, err = bridge.NewMeshMapping(b.comm, in); err != nil {
			return nil, err
		}
	case *plex.Plex:
		if mm, err = bridge.NewMeshMappingFromPlex(b.comm, in); err != nil {
			return nil, err
		}
		purified, err := b.purify(mm.Serial)
		if err != nil {
			return nil, err
		}
		if purified {
			if mm, err = bridge.NewMeshMapping(b.comm, mm.Serial); err != nil {
				return nil, err
			}
		}
	}

	if mm, err = b.applyTransforms(mm); err != nil {
		return nil, err
	}
	top, err := b.distribute(mm)
	if err != nil {
		return nil, err
	}
	return b.createFromTopology(top, mm.Serial)
}

func (b *Builder) warnAbsent(flag, consequence string) {
	b.log.Warn().Str("flag", flag).Int("rank", b.comm.Rank()).
		Msgf("no %s flag found, %s", flag, consequence)
}

// purify splits the cells of the serial mesh on worker 0 into simplices
// when the purify flag is set, and reports whether it did.
func (b *Builder) purify(m *serial.Mesh) (bool, error) {
	purify, present, err := b.flags.Bool(config.FlagPurifyToTets)
	if err != nil {
		return false, err
	}
	if !present {
		b.warnAbsent(config.FlagPurifyToTets, "mesh will not be purified to tets")
		return false, nil
	}
	if !purify {
		return false, nil
	}
	co := comm.NewCoordinator(b.comm, 0)
	err = co.MutateOnOwnerAndBroadcast(func() error {
		if m == nil {
			return fmt.Errorf("no serial mesh on worker 0: %w", mberrors.ErrUnrecognizedMeshFormat)
		}
		return m.Split2Tets()
	})
	return err == nil, err
}

func (b *Builder) applyTransforms(mm *bridge.MeshMapping) (*bridge.MeshMapping, error) {
	quad, present, err := b.flags.Bool(config.FlagQuad)
	if err != nil {
		return nil, err
	}
	switch {
	case !present:
		b.warnAbsent(config.FlagQuad, "mesh will not be quadrilateralised")
	case quad:
		if mm, err = b.transform(mm, &plex.RefineToBox{}); err != nil {
			return nil, err
		}
	}

	tr, present, err := b.flags.Transform()
	if err != nil {
		return nil, err
	}
	switch {
	case !present:
		b.warnAbsent(config.FlagTransform, "mesh will not be transformed")
	case tr != nil:
		if mm, err = b.transform(mm, tr); err != nil {
			return nil, err
		}
	}
	return mm, nil
}

// transform applies tr to the base plex on worker 0 and rebuilds the
// mapping from the result.
func (b *Builder) transform(mm *bridge.MeshMapping, tr plex.Transform) (*bridge.MeshMapping, error) {
	var out *plex.Plex
	co := comm.NewCoordinator(b.comm, 0)
	err := co.MutateOnOwnerAndBroadcast(func() error {
		tr.SetDM(mm.Plex)
		if err := tr.SetUp(); err != nil {
			return err
		}
		var err error
		out, err = tr.Apply()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("transform %T: %w", tr, err)
	}
	return bridge.NewMeshMappingFromPlex(b.comm, out)
}

// distribute partitions the base plex on worker 0 and ships every worker
// its cells.
func (b *Builder) distribute(mm *bridge.MeshMapping) (*plex.Topology, error) {
	var eToP []int
	co := comm.NewCoordinator(b.comm, 0)
	err := co.MutateOnOwnerAndBroadcast(func() error {
		pb := &partitions.PartitionBuilder{
			Mesh:          partitions.ConnectivityFromPlex(mm.Plex),
			NumPartitions: b.comm.Size(),
			Strategy:      b.strategy,
			Graph:         b.graph,
			EToP:          b.eToP,
		}
		layout, err := pb.BuildPartitions()
		if err != nil {
			return err
		}
		stats := layout.PartitionStatistics()
		b.log.Debug().
			Str("strategy", b.strategy.String()).
			Int("cells", layout.TotalElements).
			Int("max", stats.MaxElements).
			Float64("imbalance", stats.Imbalance).
			Msg("partitioned base mesh")
		eToP = layout.EToP
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("partition base mesh: %w", err)
	}
	return plex.Distribute(b.comm, mm.Plex, eToP, b.numbering)
}

// createFromTopology attaches the coordinate field, the serial mesh and
// the inverse star forest to a distributed topology.
func (b *Builder) createFromTopology(top *plex.Topology, sm *serial.Mesh) (*Mesh, error) {
	c := top.Comm
	name := b.name
	if name == "" {
		name = comm.Bcast(c, 0, "meshbridge_"+uuid.NewString())
	}
	m := &Mesh{
		Name:        name,
		Topology:    top,
		SerialMesh:  sm,
		coordinator: comm.NewCoordinator(c, 0),
		builder:     b,
		log:         b.log,
	}
	if c.Size() > 1 && top.SFBC != nil {
		inv, err := top.SFBC.CreateInverse()
		if err != nil {
			return nil, fmt.Errorf("invert base star forest: %w", err)
		}
		m.SFBCInv = inv
	}
	m.reconciler = reconcile.New(c, top.CellNumbering, top.SFBC, m.SFBCInv)

	adaptive := sm != nil && top.CellType.IsSimplex() && (c.Size() == 1 || top.SFBC != nil)
	m.caps = Capabilities{Refinement: adaptive, Curving: adaptive}

	V, err := NewVectorFunctionSpace(m, CG, 1)
	if err != nil {
		return nil, err
	}
	m.Coordinates = NewFunction(V, "coordinates")
	for v, x := range top.Coords {
		m.Coordinates.SetNode(v, x)
	}
	b.log.Debug().
		Str("mesh", name).
		Int("rank", c.Rank()).
		Int("cells", top.NumCells()).
		Str("cell", top.CellType.String()).
		Bool("adaptive", adaptive).
		Msg("created mesh")
	return m, nil
}

// rebuild wraps a mutated serial mesh with the settings of b and no
// pre-processing.
func (b *Builder) rebuild(sm *serial.Mesh) (*Mesh, error) {
	nb := *b
	nb.flags = config.Flags{
		config.FlagPurifyToTets: false,
		config.FlagQuad:         false,
		config.FlagTransform:    nil,
	}
	if nb.strategy == partitions.Precomputed {
		nb.strategy, nb.eToP = partitions.BlockPartition, nil
	}
	return nb.Build(sm)
}
