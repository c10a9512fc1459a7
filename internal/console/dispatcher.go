package console

import (
	"context"
	"sync"

	"github.com/quorumdeck/quorumdeck/internal/cluster"
	"github.com/quorumdeck/quorumdeck/internal/platform/errors"
)

// Querier is one connected node session as seen by the dispatcher.
// *cluster.Session satisfies it; tests substitute fakes.
type Querier interface {
	Addr() string
	Invoke(ctx context.Context, query string) (string, error)
	Status(ctx context.Context) (*cluster.NodeStatus, error)
}

// Dispatcher spreads work across a fixed session set. Each Submit call
// sends its whole batch to the session under the cursor, then advances the
// cursor, so consecutive submissions land on consecutive nodes.
type Dispatcher struct {
	mu       sync.Mutex
	sessions []Querier
	cursor   int
}

// NewDispatcher builds a dispatcher over the given sessions. The session
// set is fixed for the dispatcher's lifetime.
func NewDispatcher(sessions []Querier) (*Dispatcher, error) {
	if len(sessions) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "at least one session is required")
	}
	return &Dispatcher{sessions: sessions}, nil
}

// Size returns the number of sessions in the set.
func (d *Dispatcher) Size() int {
	if d == nil {
		return 0
	}
	return len(d.sessions)
}

// Submit dispatches every query in the batch to a single node and returns
// one Pending per query, in input order. The cursor advances once per
// non-empty call; an empty batch returns nil without touching the cursor.
// Queries settle independently as the node responds.
func (d *Dispatcher) Submit(ctx context.Context, queries []string) []*Pending {
	if len(queries) == 0 {
		return nil
	}

	d.mu.Lock()
	session := d.sessions[d.cursor]
	d.cursor = (d.cursor + 1) % len(d.sessions)
	d.mu.Unlock()

	pendings := make([]*Pending, len(queries))
	for i, query := range queries {
		p := newPending(query, session.Addr())
		pendings[i] = p
		go func(query string, p *Pending) {
			result, err := session.Invoke(ctx, query)
			p.resolve(result, err)
		}(query, p)
	}
	return pendings
}

// NodeStatusResult is one node's settlement from a status fan-out.
type NodeStatusResult struct {
	Addr   string
	Status *cluster.NodeStatus
	Err    error
}

// Status queries every node concurrently and waits for all of them to
// settle. Results come back in session order; a node failure fills its
// slot's Err without suppressing the other nodes.
func (d *Dispatcher) Status(ctx context.Context) []NodeStatusResult {
	results := make([]NodeStatusResult, len(d.sessions))

	var wg sync.WaitGroup
	for i, session := range d.sessions {
		wg.Add(1)
		go func(i int, session Querier) {
			defer wg.Done()
			status, err := session.Status(ctx)
			results[i] = NodeStatusResult{Addr: session.Addr(), Status: status, Err: err}
		}(i, session)
	}
	wg.Wait()

	return results
}
