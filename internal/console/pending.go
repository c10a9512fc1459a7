// Package console implements the query console behind the web and MCP
// front ends: round-robin query dispatch across a fixed set of node
// sessions, a guarded periodic status poller, and an in-memory registry of
// live console sessions.
package console

import "context"

// Pending tracks one submitted query until the node settles it.
type Pending struct {
	query string
	addr  string

	done   chan struct{}
	result string
	err    error
}

func newPending(query, addr string) *Pending {
	return &Pending{
		query: query,
		addr:  addr,
		done:  make(chan struct{}),
	}
}

// Query returns the submitted query text.
func (p *Pending) Query() string {
	if p == nil {
		return ""
	}
	return p.query
}

// Addr returns the node endpoint the query was dispatched to.
func (p *Pending) Addr() string {
	if p == nil {
		return ""
	}
	return p.addr
}

// Done returns a channel closed when the query settles.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the query settles or ctx ends, then returns the result.
func (p *Pending) Wait(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// resolve settles the pending query exactly once.
func (p *Pending) resolve(result string, err error) {
	p.result = result
	p.err = err
	close(p.done)
}
