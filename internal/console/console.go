package console

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// outputDelimiter separates appended batches in the console transcript.
const outputDelimiter = "===================="

// Console owns one browser session's view of the cluster: its dispatcher,
// status poller, and accumulated query output. The output transcript lives
// for the console's lifetime only.
type Console struct {
	dispatcher *Dispatcher
	poller     *Poller

	mu      sync.Mutex
	output  []string
	closed  bool
	closeFn func() error
}

// New builds a console over the given sessions and starts its status
// poller. closeFn releases the underlying connections when the console
// closes; it may be nil.
func New(sessions []Querier, closeFn func() error, pollInterval time.Duration) (*Console, error) {
	dispatcher, err := NewDispatcher(sessions)
	if err != nil {
		return nil, err
	}

	c := &Console{
		dispatcher: dispatcher,
		poller:     NewPoller(dispatcher, pollInterval),
		closeFn:    closeFn,
	}
	c.poller.Start()
	return c, nil
}

// Dispatcher exposes the console's dispatcher for direct status fan-outs.
func (c *Console) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Poller exposes the console's status poller.
func (c *Console) Poller() *Poller {
	return c.poller
}

// SubmitQueries parses the newline-separated input into queries, dispatches
// the batch, and returns the pending settlements in input order. Blank
// lines are dropped; an all-blank input dispatches nothing. Each settlement
// is appended to the transcript in completion order as it lands.
func (c *Console) SubmitQueries(input string) []*Pending {
	queries := ParseQueries(input)
	if len(queries) == 0 {
		return nil
	}

	pendings := c.dispatcher.Submit(context.Background(), queries)
	for _, p := range pendings {
		go func(p *Pending) {
			result, err := p.Wait(context.Background())
			line := result
			if err != nil {
				line = fmt.Sprintf("error: %v", err)
			}
			c.appendOutput(fmt.Sprintf("[%s] %s", p.Addr(), p.Query()), line, outputDelimiter)
		}(p)
	}
	return pendings
}

// WaitSettled blocks until every pending query settles or ctx ends.
func (c *Console) WaitSettled(ctx context.Context, pendings []*Pending) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, p := range pendings {
		select {
		case <-p.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Output returns a copy of the transcript lines.
func (c *Console) Output() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.output))
	copy(out, c.output)
	return out
}

func (c *Console) appendOutput(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output = append(c.output, lines...)
}

// Close stops the poller and releases the cluster connections. Close is
// idempotent.
func (c *Console) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	closeFn := c.closeFn
	c.mu.Unlock()

	c.poller.Stop()
	if closeFn != nil {
		return closeFn()
	}
	return nil
}

// ParseQueries splits raw textarea input into individual queries, dropping
// blank lines and trimming whitespace.
func ParseQueries(input string) []string {
	var queries []string
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
	}
	return queries
}
