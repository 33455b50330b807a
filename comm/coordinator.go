package comm

// Coordinator confines mutation of single-owner state to one worker and
// turns it into a collective: every worker calls the same method, the owner
// does the work and every worker observes the owner's outcome.
type Coordinator struct {
	comm  Comm
	owner int
}

// NewCoordinator returns a coordinator whose state lives on owner.
func NewCoordinator(c Comm, owner int) *Coordinator {
	return &Coordinator{comm: c, owner: owner}
}

// Owner is the rank holding the state; IsOwner reports whether that is the
// calling worker.
func (co *Coordinator) Comm() Comm    { return co.comm }
func (co *Coordinator) Owner() int    { return co.owner }
func (co *Coordinator) IsOwner() bool { return co.comm.Rank() == co.owner }

// MutateOnOwnerAndBroadcast runs fn on the owner only and returns the
// owner's error on every worker. Collective.
func (co *Coordinator) MutateOnOwnerAndBroadcast(fn func() error) error {
	var err error
	if co.IsOwner() {
		err = fn()
	}
	return Bcast(co.comm, co.owner, err)
}

// OwnerValue runs fn on the owner and broadcasts both its result and its
// error. Collective.
func OwnerValue[T any](co *Coordinator, fn func() (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	var out outcome
	if co.IsOwner() {
		out.v, out.err = fn()
	}
	out = Bcast(co.comm, co.owner, out)
	return out.v, out.err
}
