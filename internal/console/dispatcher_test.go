package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quorumdeck/quorumdeck/internal/cluster"
)

// fakeSession is a scriptable Querier for dispatcher and poller tests.
type fakeSession struct {
	addr string

	mu      sync.Mutex
	invokes []string

	invokeFn func(ctx context.Context, query string) (string, error)
	statusFn func(ctx context.Context) (*cluster.NodeStatus, error)
}

func (f *fakeSession) Addr() string { return f.addr }

func (f *fakeSession) Invoke(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.invokes = append(f.invokes, query)
	f.mu.Unlock()
	if f.invokeFn != nil {
		return f.invokeFn(ctx, query)
	}
	return "ok: " + query, nil
}

func (f *fakeSession) Status(ctx context.Context) (*cluster.NodeStatus, error) {
	if f.statusFn != nil {
		return f.statusFn(ctx)
	}
	return &cluster.NodeStatus{
		NodeInfo: cluster.NodeInfo{ListenAddr: f.addr},
		SyncInfo: cluster.SyncInfo{LatestBlockHash: "bh", LatestAppHash: "ah", LatestBlockHeight: 7},
	}, nil
}

func (f *fakeSession) invoked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.invokes))
	copy(out, f.invokes)
	return out
}

func threeNodes() (*fakeSession, *fakeSession, *fakeSession, []Querier) {
	a := &fakeSession{addr: "localhost:9701"}
	b := &fakeSession{addr: "localhost:9702"}
	c := &fakeSession{addr: "localhost:9703"}
	return a, b, c, []Querier{a, b, c}
}

func settleAll(t *testing.T, pendings []*Pending) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, p := range pendings {
		if _, err := p.Wait(ctx); err != nil && errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("pending %q never settled", p.Query())
		}
	}
}

func TestNewDispatcherRequiresSessions(t *testing.T) {
	if _, err := NewDispatcher(nil); err == nil {
		t.Fatal("expected error for empty session set")
	}
}

func TestSubmitRoundRobinsBatchesAcrossNodes(t *testing.T) {
	a, b, c, sessions := threeNodes()
	d, err := NewDispatcher(sessions)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	// Four batches across three nodes: the fourth wraps back to the first.
	settleAll(t, d.Submit(context.Background(), []string{"q1", "q2"}))
	settleAll(t, d.Submit(context.Background(), []string{"q3"}))
	settleAll(t, d.Submit(context.Background(), []string{"q4"}))
	settleAll(t, d.Submit(context.Background(), []string{"q5"}))

	if got := a.invoked(); len(got) != 3 {
		t.Fatalf("node A invokes = %v, want batch 1 and batch 4", got)
	}
	if got := b.invoked(); len(got) != 1 || got[0] != "q3" {
		t.Fatalf("node B invokes = %v, want [q3]", got)
	}
	if got := c.invoked(); len(got) != 1 || got[0] != "q4" {
		t.Fatalf("node C invokes = %v, want [q4]", got)
	}
}

func TestSubmitWholeBatchGoesToOneNode(t *testing.T) {
	a, b, c, sessions := threeNodes()
	d, err := NewDispatcher(sessions)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	settleAll(t, d.Submit(context.Background(), []string{"q1", "q2", "q3"}))

	if got := a.invoked(); len(got) != 3 {
		t.Fatalf("node A invokes = %v, want all three queries", got)
	}
	if got := b.invoked(); len(got) != 0 {
		t.Fatalf("node B invokes = %v, want none", got)
	}
	if got := c.invoked(); len(got) != 0 {
		t.Fatalf("node C invokes = %v, want none", got)
	}
}

func TestSubmitReturnsPendingsInInputOrder(t *testing.T) {
	_, _, _, sessions := threeNodes()
	d, err := NewDispatcher(sessions)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	queries := []string{"first", "second", "third"}
	pendings := d.Submit(context.Background(), queries)

	if len(pendings) != len(queries) {
		t.Fatalf("got %d pendings, want %d", len(pendings), len(queries))
	}
	for i, p := range pendings {
		if p.Query() != queries[i] {
			t.Fatalf("pending %d query = %q, want %q", i, p.Query(), queries[i])
		}
		if p.Addr() != "localhost:9701" {
			t.Fatalf("pending %d addr = %q, want the first node", i, p.Addr())
		}
	}
	settleAll(t, pendings)
}

func TestSubmitEmptyBatchDoesNotAdvanceCursor(t *testing.T) {
	a, _, _, sessions := threeNodes()
	d, err := NewDispatcher(sessions)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	if pendings := d.Submit(context.Background(), nil); pendings != nil {
		t.Fatalf("expected nil pendings for empty batch, got %d", len(pendings))
	}

	settleAll(t, d.Submit(context.Background(), []string{"q1"}))
	if got := a.invoked(); len(got) != 1 {
		t.Fatalf("node A invokes = %v, want the first real batch", got)
	}
}

func TestPendingsSettleIndependently(t *testing.T) {
	slow := make(chan struct{})
	a := &fakeSession{
		addr: "localhost:9701",
		invokeFn: func(ctx context.Context, query string) (string, error) {
			if query == "slow" {
				<-slow
			}
			return "ok: " + query, nil
		},
	}
	d, err := NewDispatcher([]Querier{a})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	pendings := d.Submit(context.Background(), []string{"slow", "fast"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if result, err := pendings[1].Wait(ctx); err != nil || result != "ok: fast" {
		t.Fatalf("fast query = %q, %v; want settled before slow", result, err)
	}
	select {
	case <-pendings[0].Done():
		t.Fatal("slow query settled before its node responded")
	default:
	}

	close(slow)
	settleAll(t, pendings)
}

func TestStatusSettleAllKeepsFailingNodeIsolated(t *testing.T) {
	statusErr := errors.New("node down")
	a, b, c, sessions := threeNodes()
	b.statusFn = func(ctx context.Context) (*cluster.NodeStatus, error) {
		return nil, statusErr
	}
	_ = a
	_ = c

	d, err := NewDispatcher(sessions)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	results := d.Status(context.Background())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[0].Status == nil {
		t.Fatalf("node A result = %+v, want success", results[0])
	}
	if !errors.Is(results[1].Err, statusErr) || results[1].Status != nil {
		t.Fatalf("node B result = %+v, want the node error", results[1])
	}
	if results[2].Err != nil || results[2].Status == nil {
		t.Fatalf("node C result = %+v, want success", results[2])
	}
	if results[0].Addr != "localhost:9701" || results[2].Addr != "localhost:9703" {
		t.Fatal("expected results in session order")
	}
}
