package comm

// Bcast returns root's v on every worker.
func Bcast[T any](c Comm, root int, v T) T {
	if c.Rank() == root {
		for r := 0; r < c.Size(); r++ {
			if r != root {
				c.Send(r, v)
			}
		}
		return v
	}
	got, _ := c.Recv(root).(T)
	return got
}

// Gather collects one value per worker on root, in rank order. Non-root
// workers get nil.
func Gather[T any](c Comm, root int, v T) []T {
	if c.Rank() != root {
		c.Send(root, v)
		return nil
	}
	out := make([]T, c.Size())
	for r := range out {
		if r == root {
			out[r] = v
			continue
		}
		out[r], _ = c.Recv(r).(T)
	}
	return out
}

// Allgather returns every worker's value on every worker.
func Allgather[T any](c Comm, v T) []T {
	return Bcast(c, 0, Gather(c, 0, v))
}

// Barrier returns once every worker has entered it.
func Barrier(c Comm) {
	Bcast(c, 0, Gather(c, 0, struct{}{}) != nil)
}

// Agree makes a locally detected failure collective: every worker returns
// the error of the lowest failing rank, or nil when no worker failed.
func Agree(c Comm, err error) error {
	errs := Gather(c, 0, err)
	var first error
	for _, e := range errs {
		if e != nil {
			first = e
			break
		}
	}
	return Bcast(c, 0, first)
}

// SumInt adds v over all workers.
func SumInt(c Comm, v int) int {
	total := 0
	for _, x := range Allgather(c, v) {
		total += x
	}
	return total
}
