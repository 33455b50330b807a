// Package comm provides the message-passing layer the mesh bridge runs on:
// a fixed set of workers, point-to-point messages and the collectives built
// from them.
//
// Workers are goroutines owned by a World. Sends are eager and never block;
// receives block until a message from the named peer arrives. Messages
// between a pair of workers are delivered in order, so any sequence of
// collectives executed in the same order on every worker matches up without
// tags. A worker calling a collective that its peers skip blocks forever,
// exactly like a skewed MPI program; the World only unwinds blocked workers
// when some worker fails.
package comm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrAborted is returned by workers unwound because a peer failed.
var ErrAborted = errors.New("comm: world aborted by a failing worker")

// Comm is one worker's view of the world.
type Comm interface {
	Rank() int
	Size() int
	// Send queues msg for worker `to`. It never blocks.
	Send(to int, msg any)
	// Recv blocks until the next message from worker `from` arrives.
	Recv(from int) any
}

// World is a fixed group of workers connected by FIFO mailboxes.
type World struct {
	size    int
	boxes   [][]*mailbox // [from][to]
	aborted atomic.Bool

	errOnce  sync.Once
	firstErr error
}

// NewWorld creates a world of size workers.
func NewWorld(size int) *World {
	if size < 1 {
		panic(fmt.Sprintf("comm: world size %d < 1", size))
	}
	w := &World{size: size}
	w.boxes = make([][]*mailbox, size)
	for from := range w.boxes {
		w.boxes[from] = make([]*mailbox, size)
		for to := range w.boxes[from] {
			mb := &mailbox{world: w}
			mb.cond = sync.NewCond(&mb.mu)
			w.boxes[from][to] = mb
		}
	}
	return w
}

// Self returns the communicator of a one-worker world.
func Self() Comm {
	return NewWorld(1).Comm(0)
}

// Size returns the number of workers.
func (w *World) Size() int { return w.size }

// Comm returns the communicator of worker rank.
func (w *World) Comm(rank int) Comm {
	if rank < 0 || rank >= w.size {
		panic(fmt.Sprintf("comm: rank %d outside world of size %d", rank, w.size))
	}
	return &worker{world: w, rank: rank}
}

// Run executes fn once per worker, each on its own goroutine, and waits for
// all of them. The first worker error is returned; when a worker fails the
// world is aborted so peers blocked in Recv return ErrAborted.
func (w *World) Run(ctx context.Context, fn func(ctx context.Context, c Comm) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for r := 0; r < w.size; r++ {
		c := w.Comm(r)
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					if perr, ok := p.(error); ok && errors.Is(perr, ErrAborted) {
						err = ErrAborted
					} else {
						err = fmt.Errorf("comm: rank %d panicked: %v", c.Rank(), p)
					}
				}
				if err != nil {
					if !errors.Is(err, ErrAborted) {
						w.errOnce.Do(func() { w.firstErr = err })
					}
					w.abort()
				}
			}()
			return fn(gctx, c)
		})
	}
	err := g.Wait()
	if w.firstErr != nil {
		return w.firstErr
	}
	return err
}

func (w *World) abort() {
	w.aborted.Store(true)
	for _, row := range w.boxes {
		for _, mb := range row {
			mb.mu.Lock()
			mb.cond.Broadcast()
			mb.mu.Unlock()
		}
	}
}

type worker struct {
	world *World
	rank  int
}

func (c *worker) Rank() int { return c.rank }
func (c *worker) Size() int { return c.world.size }

func (c *worker) Send(to int, msg any) {
	c.world.boxes[c.rank][to].put(msg)
}

func (c *worker) Recv(from int) any {
	return c.world.boxes[from][c.rank].take()
}

type mailbox struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []any
	world *World
}

func (mb *mailbox) put(msg any) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()
	mb.cond.Signal()
}

func (mb *mailbox) take() any {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for len(mb.queue) == 0 {
		if mb.world.aborted.Load() {
			panic(ErrAborted)
		}
		mb.cond.Wait()
	}
	msg := mb.queue[0]
	mb.queue[0] = nil
	mb.queue = mb.queue[1:]
	return msg
}
