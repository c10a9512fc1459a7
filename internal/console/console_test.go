package console

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestConsole(t *testing.T, sessions []Querier) *Console {
	t.Helper()
	c, err := New(sessions, nil, time.Hour)
	if err != nil {
		t.Fatalf("new console: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestParseQueriesDropsBlankLines(t *testing.T) {
	queries := ParseQueries("  put k v  \n\n   \nget k\r\n")
	want := []string{"put k v", "get k"}
	if len(queries) != len(want) {
		t.Fatalf("got %d queries, want %d: %v", len(queries), len(want), queries)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Fatalf("query %d = %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestSubmitQueriesAppendsSettledOutput(t *testing.T) {
	a, _, _, sessions := threeNodes()
	_ = a
	c := newTestConsole(t, sessions)

	pendings := c.SubmitQueries("put k v\nget k")
	if len(pendings) != 2 {
		t.Fatalf("got %d pendings, want 2", len(pendings))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.WaitSettled(ctx, pendings); err != nil {
		t.Fatalf("wait settled: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(c.Output()) >= 6
	})
	joined := strings.Join(c.Output(), "\n")
	if !strings.Contains(joined, "ok: put k v") {
		t.Fatalf("output missing put result: %q", joined)
	}
	if !strings.Contains(joined, "ok: get k") {
		t.Fatalf("output missing get result: %q", joined)
	}
	if !strings.Contains(joined, outputDelimiter) {
		t.Fatalf("output missing delimiter: %q", joined)
	}
	if !strings.Contains(joined, "[localhost:9701]") {
		t.Fatalf("output missing node attribution: %q", joined)
	}
}

func TestSubmitQueriesBlankInputIsNoOp(t *testing.T) {
	a, _, _, sessions := threeNodes()
	c := newTestConsole(t, sessions)

	if pendings := c.SubmitQueries("  \n\n  "); pendings != nil {
		t.Fatalf("expected nil pendings for blank input, got %d", len(pendings))
	}
	if len(c.Output()) != 0 {
		t.Fatalf("expected empty output, got %v", c.Output())
	}

	// The cursor did not move: the next real batch lands on the first node.
	pendings := c.SubmitQueries("get k")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.WaitSettled(ctx, pendings); err != nil {
		t.Fatalf("wait settled: %v", err)
	}
	if got := a.invoked(); len(got) != 1 {
		t.Fatalf("node A invokes = %v, want [get k]", got)
	}
}

func TestConsoleCloseStopsPollerAndRunsCloseFn(t *testing.T) {
	_, _, _, sessions := threeNodes()

	closed := 0
	c, err := New(sessions, func() error { closed++; return nil }, time.Hour)
	if err != nil {
		t.Fatalf("new console: %v", err)
	}
	if !c.Poller().Running() {
		t.Fatal("expected poller started with the console")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Poller().Running() {
		t.Fatal("expected poller stopped after close")
	}
	if closed != 1 {
		t.Fatalf("closeFn calls = %d, want 1", closed)
	}

	// Idempotent.
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closeFn calls after second close = %d, want 1", closed)
	}
}

func TestConsoleErrorsAppearInOutput(t *testing.T) {
	a := &fakeSession{
		addr: "localhost:9701",
		invokeFn: func(ctx context.Context, query string) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	c := newTestConsole(t, []Querier{a})

	pendings := c.SubmitQueries("get k")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.WaitSettled(ctx, pendings); err != nil {
		t.Fatalf("wait settled: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return len(c.Output()) >= 3 })
	joined := strings.Join(c.Output(), "\n")
	if !strings.Contains(joined, "error:") {
		t.Fatalf("expected error line in output, got %q", joined)
	}
}
