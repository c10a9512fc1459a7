// Package cluster is the client boundary to a Quorumdeck node cluster. It
// dials each node endpoint, authenticates calls with per-connection
// metadata, and exposes typed Invoke and Status RPCs over a JSON codec.
package cluster

// nodeServiceName is the fully qualified gRPC service every cluster node
// exposes.
const nodeServiceName = "quorumdeck.cluster.v1.NodeService"

// Fully qualified method paths for the node service.
const (
	invokeMethod = "/" + nodeServiceName + "/Invoke"
	statusMethod = "/" + nodeServiceName + "/Status"
)

// Call metadata keys identifying the application session to the node.
const (
	metadataAppID         = "qd-app-id"
	metadataSignerAddress = "qd-signer-address"
	metadataPrivateKey    = "qd-private-key"
)

// InvokeRequest submits one query for execution on a node.
type InvokeRequest struct {
	AppID string `json:"app_id"`
	Query string `json:"query"`
}

// InvokeResponse carries the node's textual result for a query.
type InvokeResponse struct {
	Result string `json:"result"`
}

// StatusRequest asks a node for its current sync state.
type StatusRequest struct {
	AppID string `json:"app_id"`
}

// NodeInfo identifies a node within the cluster.
type NodeInfo struct {
	ListenAddr string `json:"listen_addr"`
}

// SyncInfo reports a node's replicated-state position.
type SyncInfo struct {
	LatestBlockHash   string `json:"latest_block_hash"`
	LatestAppHash     string `json:"latest_app_hash"`
	LatestBlockHeight int64  `json:"latest_block_height"`
}

// NodeStatus is the full status payload returned by a node.
type NodeStatus struct {
	NodeInfo NodeInfo `json:"node_info"`
	SyncInfo SyncInfo `json:"sync_info"`
}
