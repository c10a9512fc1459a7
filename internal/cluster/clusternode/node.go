// Package clusternode implements an in-memory development node. It speaks
// the same NodeService wire protocol as a production cluster node, backed
// by a per-app key/value store with synthetic block progression, so the
// console and MCP services can run against local processes.
package clusternode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/quorumdeck/quorumdeck/internal/cluster"
	"github.com/quorumdeck/quorumdeck/internal/platform/errors"
)

// Node is a single development cluster node.
type Node struct {
	listenAddr string

	mu        sync.Mutex
	stores    map[string]map[string]string // app id -> key -> value
	height    int64
	blockHash string
	appHash   string
}

// New creates a node that reports listenAddr in its status payload.
func New(listenAddr string) *Node {
	n := &Node{
		listenAddr: strings.TrimSpace(listenAddr),
		stores:     map[string]map[string]string{},
	}
	n.blockHash = digest("genesis-block:" + n.listenAddr)
	n.appHash = digest("genesis-app:" + n.listenAddr)
	return n
}

// Register wires the node and a SERVING health endpoint onto a gRPC server.
func (n *Node) Register(s *gogrpc.Server) {
	cluster.RegisterNodeServiceServer(s, n)
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s, healthServer)
}

// Invoke executes one query against the node's store. Supported forms:
//
//	put <key> <value>  stores value and advances the chain
//	get <key>          reads a stored value
//
// Any other query echoes back, still advancing the chain, so arbitrary
// console input produces observable state movement.
func (n *Node) Invoke(ctx context.Context, req *cluster.InvokeRequest) (*cluster.InvokeResponse, error) {
	if req == nil {
		return nil, errors.New(errors.CodeQueryRejected, "request is required").ToGRPCStatus()
	}
	appID := requestAppID(ctx, req.AppID)
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errors.New(errors.CodeQueryRejected, "query is required").ToGRPCStatus()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	store := n.stores[appID]
	if store == nil {
		store = map[string]string{}
		n.stores[appID] = store
	}

	fields := strings.Fields(query)
	var result string
	switch {
	case fields[0] == "put" && len(fields) >= 3:
		key := fields[1]
		value := strings.Join(fields[2:], " ")
		store[key] = value
		result = fmt.Sprintf("ok: %s", key)
	case fields[0] == "get" && len(fields) == 2:
		value, ok := store[fields[1]]
		if !ok {
			result = fmt.Sprintf("(nil) %s", fields[1])
		} else {
			result = value
		}
	default:
		result = fmt.Sprintf("echo: %s", query)
	}

	n.advance(appID, query)
	return &cluster.InvokeResponse{Result: result}, nil
}

// Status reports the node's identity and current sync position.
func (n *Node) Status(ctx context.Context, req *cluster.StatusRequest) (*cluster.NodeStatus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return &cluster.NodeStatus{
		NodeInfo: cluster.NodeInfo{ListenAddr: n.listenAddr},
		SyncInfo: cluster.SyncInfo{
			LatestBlockHash:   n.blockHash,
			LatestAppHash:     n.appHash,
			LatestBlockHeight: n.height,
		},
	}, nil
}

// advance moves the synthetic chain forward by one block. Caller holds the
// lock.
func (n *Node) advance(appID, query string) {
	n.height++
	n.blockHash = digest(fmt.Sprintf("%s|%d|%s", n.blockHash, n.height, query))
	n.appHash = digest(fmt.Sprintf("%s|%s|%s", n.appHash, appID, query))
}

// requestAppID prefers the call metadata app id, falling back to the
// request body.
func requestAppID(ctx context.Context, fallback string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("qd-app-id"); len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			return strings.TrimSpace(values[0])
		}
	}
	return strings.TrimSpace(fallback)
}

func digest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
