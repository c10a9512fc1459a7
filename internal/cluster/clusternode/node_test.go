package clusternode_test

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"

	"github.com/quorumdeck/quorumdeck/internal/cluster"
	"github.com/quorumdeck/quorumdeck/internal/cluster/clusternode"
)

// startNode serves a dev node on an ephemeral port and returns its address.
func startNode(t *testing.T) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	server := gogrpc.NewServer()
	node := clusternode.New(lis.Addr().String())
	node.Register(server)

	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	return lis.Addr().String()
}

func connect(t *testing.T, addr string) *cluster.SessionSet {
	t.Helper()

	set, err := cluster.Connect(context.Background(), cluster.Config{
		Endpoints:     []string{addr},
		AppID:         "test-app",
		SignerAddress: "signer-1",
		DialTimeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = set.Close() })
	return set
}

func TestNodePutGetRoundTrip(t *testing.T) {
	addr := startNode(t)
	session := connect(t, addr).Sessions()[0]

	result, err := session.Invoke(context.Background(), "put color blue")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if result != "ok: color" {
		t.Fatalf("put result = %q, want %q", result, "ok: color")
	}

	result, err = session.Invoke(context.Background(), "get color")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if result != "blue" {
		t.Fatalf("get result = %q, want %q", result, "blue")
	}

	result, err = session.Invoke(context.Background(), "get missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if result != "(nil) missing" {
		t.Fatalf("get missing result = %q, want %q", result, "(nil) missing")
	}
}

func TestNodeEchoesUnknownQueries(t *testing.T) {
	addr := startNode(t)
	session := connect(t, addr).Sessions()[0]

	result, err := session.Invoke(context.Background(), "ping")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result != "echo: ping" {
		t.Fatalf("result = %q, want %q", result, "echo: ping")
	}
}

func TestNodeStatusAdvancesPerInvoke(t *testing.T) {
	addr := startNode(t)
	session := connect(t, addr).Sessions()[0]

	before, err := session.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if before.NodeInfo.ListenAddr != addr {
		t.Fatalf("listen addr = %q, want %q", before.NodeInfo.ListenAddr, addr)
	}
	if before.SyncInfo.LatestBlockHeight != 0 {
		t.Fatalf("initial height = %d, want 0", before.SyncInfo.LatestBlockHeight)
	}

	if _, err := session.Invoke(context.Background(), "put k v"); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	after, err := session.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if after.SyncInfo.LatestBlockHeight != before.SyncInfo.LatestBlockHeight+1 {
		t.Fatalf("height = %d, want %d", after.SyncInfo.LatestBlockHeight, before.SyncInfo.LatestBlockHeight+1)
	}
	if after.SyncInfo.LatestBlockHash == before.SyncInfo.LatestBlockHash {
		t.Fatal("expected block hash to change after invoke")
	}
	if after.SyncInfo.LatestAppHash == before.SyncInfo.LatestAppHash {
		t.Fatal("expected app hash to change after invoke")
	}
	if len(after.SyncInfo.LatestBlockHash) != 64 {
		t.Fatalf("block hash length = %d, want 64 hex chars", len(after.SyncInfo.LatestBlockHash))
	}
}

func TestNodeRejectsEmptyQueryOverWire(t *testing.T) {
	addr := startNode(t)
	node := clusternode.New(addr)

	_, err := node.Invoke(context.Background(), &cluster.InvokeRequest{AppID: "test-app", Query: "   "})
	if err == nil {
		t.Fatal("expected error for blank query")
	}
	if !strings.Contains(err.Error(), "query is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}
