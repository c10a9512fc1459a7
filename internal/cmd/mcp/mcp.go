// Package mcp wires configuration for the MCP stdio service.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	platformcmd "github.com/quorumdeck/quorumdeck/internal/platform/cmd"
	mcpservice "github.com/quorumdeck/quorumdeck/internal/services/mcp"
)

// Config holds the MCP command configuration.
type Config struct {
	Endpoints     string        `env:"QUORUMDECK_MCP_ENDPOINTS" envDefault:"localhost:9701,localhost:9702,localhost:9703"`
	AppID         string        `env:"QUORUMDECK_MCP_APP_ID" envDefault:"quorumdeck"`
	SignerAddress string        `env:"QUORUMDECK_MCP_SIGNER_ADDRESS"`
	PrivateKey    string        `env:"QUORUMDECK_MCP_PRIVATE_KEY"`
	DialTimeout   time.Duration `env:"QUORUMDECK_MCP_DIAL_TIMEOUT" envDefault:"5s"`
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{}
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Endpoints, "endpoints", cfg.Endpoints, "comma-separated node endpoints")
	fs.StringVar(&cfg.AppID, "app-id", cfg.AppID, "application namespace on the cluster")
	fs.StringVar(&cfg.SignerAddress, "signer-address", cfg.SignerAddress, "account queries are attributed to")
	fs.StringVar(&cfg.PrivateKey, "private-key", cfg.PrivateKey, "signing key forwarded to nodes (optional)")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "per-node dial timeout")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run connects to the cluster and serves MCP on stdio.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMCP, func(ctx context.Context) error {
		server, err := mcpservice.NewServer(ctx, mcpservice.Config{
			Endpoints:     splitList(cfg.Endpoints),
			AppID:         cfg.AppID,
			SignerAddress: cfg.SignerAddress,
			PrivateKey:    cfg.PrivateKey,
			DialTimeout:   cfg.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("init MCP server: %w", err)
		}

		if err := server.Serve(ctx); err != nil {
			return fmt.Errorf("serve MCP: %w", err)
		}
		return nil
	})
}

func splitList(raw string) []string {
	var values []string
	for _, chunk := range strings.Split(raw, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		values = append(values, chunk)
	}
	return values
}
