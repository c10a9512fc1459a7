package console

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is the status poll period when none is configured.
const DefaultPollInterval = 500 * time.Millisecond

// defaultPollTimeout bounds a single status fan-out so a hung node cannot
// pin the in-flight guard forever.
const defaultPollTimeout = 10 * time.Second

// StatusFetcher yields one settle-all snapshot of the cluster.
// *Dispatcher satisfies it.
type StatusFetcher interface {
	Status(ctx context.Context) []NodeStatusResult
}

// PollSnapshot is the most recent settled status fan-out.
type PollSnapshot struct {
	Results []NodeStatusResult
	Taken   time.Time
}

// Poller refreshes cluster status on a fixed interval. Ticks are guarded:
// while a poll is in flight, elapsing ticks are skipped, never queued.
// Stopping the poller halts future ticks but does not cancel an in-flight
// poll; its snapshot still lands when it settles.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration

	mu       sync.Mutex
	running  bool
	inFlight bool
	stop     chan struct{}
	snapshot PollSnapshot
}

// NewPoller builds a stopped poller. A non-positive interval falls back to
// DefaultPollInterval.
func NewPoller(fetcher StatusFetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{fetcher: fetcher, interval: interval}
}

// Start begins ticking. Starting a running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	go p.loop(p.stop)
}

// Stop halts future ticks. An in-flight poll is left to settle.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
	p.stop = nil
}

// Toggle flips the poller between running and stopped, returning the new
// running state.
func (p *Poller) Toggle() bool {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	if running {
		p.Stop()
		return false
	}
	p.Start()
	return true
}

// Running reports whether the poller is ticking.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Snapshot returns the latest settled poll, which may be zero before the
// first poll completes.
func (p *Poller) Snapshot() PollSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *Poller) loop(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Poll immediately so a freshly started poller has a snapshot before
	// the first full interval elapses.
	p.tick()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick launches a poll unless one is already in flight.
func (p *Poller) tick() {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return
	}
	p.inFlight = true
	p.mu.Unlock()

	// The poll runs on a background context so stopping the poller never
	// cancels it; a late settlement still updates the snapshot.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultPollTimeout)
		defer cancel()

		results := p.fetcher.Status(ctx)

		p.mu.Lock()
		p.snapshot = PollSnapshot{Results: results, Taken: time.Now()}
		p.inFlight = false
		p.mu.Unlock()
	}()
}
