package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quorumdeck/quorumdeck/internal/console"
)

// clusterCallTimeout bounds one tool invocation's cluster round trips.
const clusterCallTimeout = 10 * time.Second

// QueryResult is one settled query within a submitted batch.
type QueryResult struct {
	Query  string `json:"query" jsonschema:"the query text as submitted"`
	Result string `json:"result,omitempty" jsonschema:"the node's result for the query"`
	Error  string `json:"error,omitempty" jsonschema:"failure message when the query did not settle cleanly"`
}

// QuerySubmitInput represents the MCP tool input for submitting queries.
type QuerySubmitInput struct {
	Queries []string `json:"queries" jsonschema:"queries to execute, one per entry; the whole batch runs on a single node"`
}

// QuerySubmitResult represents the MCP tool output for submitting queries.
type QuerySubmitResult struct {
	Node    string        `json:"node" jsonschema:"address of the node the batch was dispatched to"`
	Results []QueryResult `json:"results" jsonschema:"per-query settlements in submission order"`
}

// NodeStatusOutput is one node's row in a cluster status result.
type NodeStatusOutput struct {
	Addr        string `json:"addr" jsonschema:"node listen address"`
	BlockHash   string `json:"block_hash,omitempty" jsonschema:"latest block hash"`
	AppHash     string `json:"app_hash,omitempty" jsonschema:"latest application hash"`
	BlockHeight int64  `json:"block_height,omitempty" jsonschema:"latest block height"`
	Error       string `json:"error,omitempty" jsonschema:"failure message when the node did not respond"`
}

// ClusterStatusInput represents the MCP tool input for fetching status.
type ClusterStatusInput struct{}

// ClusterStatusResult represents the MCP tool output for fetching status.
type ClusterStatusResult struct {
	Nodes []NodeStatusOutput `json:"nodes" jsonschema:"per-node status in cluster order"`
}

// QuerySubmitTool defines the MCP tool schema for submitting queries.
func QuerySubmitTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "query_submit",
		Description: "Submits a batch of queries to the next cluster node in round-robin order",
	}
}

// ClusterStatusTool defines the MCP tool schema for fetching cluster status.
func ClusterStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "cluster_status",
		Description: "Fetches block and application state from every cluster node",
	}
}

// QuerySubmitHandler executes query batches against the dispatcher.
func QuerySubmitHandler(dispatcher *console.Dispatcher) mcp.ToolHandlerFor[QuerySubmitInput, QuerySubmitResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QuerySubmitInput) (*mcp.CallToolResult, QuerySubmitResult, error) {
		queries := trimQueries(input.Queries)
		if len(queries) == 0 {
			return nil, QuerySubmitResult{}, fmt.Errorf("at least one query is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, clusterCallTimeout)
		defer cancel()

		pendings := dispatcher.Submit(runCtx, queries)
		result := QuerySubmitResult{Results: make([]QueryResult, len(pendings))}
		for i, pending := range pendings {
			if result.Node == "" {
				result.Node = pending.Addr()
			}
			settled := QueryResult{Query: pending.Query()}
			value, err := pending.Wait(runCtx)
			if err != nil {
				settled.Error = err.Error()
			} else {
				settled.Result = value
			}
			result.Results[i] = settled
		}
		return nil, result, nil
	}
}

// ClusterStatusHandler fans out a status request to every node.
func ClusterStatusHandler(dispatcher *console.Dispatcher) mcp.ToolHandlerFor[ClusterStatusInput, ClusterStatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ClusterStatusInput) (*mcp.CallToolResult, ClusterStatusResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, clusterCallTimeout)
		defer cancel()

		results := dispatcher.Status(runCtx)
		out := ClusterStatusResult{Nodes: make([]NodeStatusOutput, len(results))}
		for i, result := range results {
			node := NodeStatusOutput{Addr: result.Addr}
			switch {
			case result.Err != nil:
				node.Error = result.Err.Error()
			case result.Status != nil:
				node.BlockHash = result.Status.SyncInfo.LatestBlockHash
				node.AppHash = result.Status.SyncInfo.LatestAppHash
				node.BlockHeight = result.Status.SyncInfo.LatestBlockHeight
			}
			out.Nodes[i] = node
		}
		return nil, out, nil
	}
}

func trimQueries(raw []string) []string {
	var queries []string
	for _, query := range raw {
		for _, parsed := range console.ParseQueries(query) {
			queries = append(queries, parsed)
		}
	}
	return queries
}
