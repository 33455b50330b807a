package fem

import (
	"fmt"

	"github.com/notargets/meshbridge/mberrors"
)

// FlagMarkedElements resolves a DG0 marking field to serial element order
// and sets the refine flag of every serial element on worker 0 from it: an
// element is flagged when its mark is non-zero. Collective.
func (m *Mesh) FlagMarkedElements(mark *Function) error {
	if d := m.GeometricDimension(); d != 2 {
		return mberrors.UnsupportedDimension("refine_marked_elements", d, 2)
	}
	if !m.caps.Refinement {
		return fmt.Errorf("refine mesh %s: %w", m.Name, mberrors.ErrUnsupported)
	}
	if err := m.checkMark(mark); err != nil {
		return err
	}

	resolved, index, err := m.reconciler.ToSerial(mark.Dat, 1)
	if err != nil {
		return err
	}
	return m.coordinator.MutateOnOwnerAndBroadcast(func() error {
		elements := m.SerialMesh.Elements2D()
		if len(resolved) != len(elements) {
			return fmt.Errorf("mark resolved to %d values for %d serial elements: %w",
				len(resolved), len(elements), mberrors.ErrTopologyMismatch)
		}
		for i, el := range elements {
			el.Refine = resolved[index(i)] != 0
		}
		return nil
	})
}

// RefineMarkedElements refines the serial mesh where mark is non-zero and
// returns the mesh built from the result. The serial mesh is refined in
// place, so the receiver loses its adaptive capabilities. Collective.
func (m *Mesh) RefineMarkedElements(mark *Function) (*Mesh, error) {
	if err := m.FlagMarkedElements(mark); err != nil {
		return nil, err
	}
	err := m.coordinator.MutateOnOwnerAndBroadcast(func() error {
		return m.SerialMesh.Refine(true)
	})
	if err != nil {
		return nil, fmt.Errorf("refine mesh %s: %w", m.Name, err)
	}
	m.caps = Capabilities{}
	refined, err := m.builder.rebuild(m.SerialMesh)
	if err != nil {
		return nil, err
	}
	if m.coordinator.IsOwner() {
		m.log.Info().
			Str("mesh", refined.Name).
			Int("elements", m.SerialMesh.NumElements()).
			Msg("refined marked elements")
	}
	return refined, nil
}

func (m *Mesh) checkMark(mark *Function) error {
	if mark == nil {
		return fmt.Errorf("no marking function")
	}
	V := mark.Space()
	if V.Mesh() != m {
		return fmt.Errorf("marking function %s lives on another mesh: %w", mark.Name, mberrors.ErrTopologyMismatch)
	}
	if V.Family != DG || V.Degree != 0 || V.ValueSize != 1 {
		return fmt.Errorf("marking function %s is %s%d with %d components, want scalar DG0",
			mark.Name, V.Family, V.Degree, V.ValueSize)
	}
	return nil
}
