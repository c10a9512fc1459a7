// Package devnode wires configuration for the local development cluster.
package devnode

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"strings"

	gogrpc "google.golang.org/grpc"

	"github.com/quorumdeck/quorumdeck/internal/cluster/clusternode"
	platformcmd "github.com/quorumdeck/quorumdeck/internal/platform/cmd"
)

// Config holds the devnode command configuration.
type Config struct {
	ListenAddrs string `env:"QUORUMDECK_DEVNODE_LISTEN_ADDRS" envDefault:"localhost:9701,localhost:9702,localhost:9703"`
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{}
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ListenAddrs, "listen-addrs", cfg.ListenAddrs, "comma-separated node listen addresses")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run serves one development node per configured address until the context
// ends.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceDevNode, func(ctx context.Context) error {
		addrs := splitAddrs(cfg.ListenAddrs)
		if len(addrs) == 0 {
			return fmt.Errorf("at least one listen address is required")
		}

		servers := make([]*gogrpc.Server, 0, len(addrs))
		serveErr := make(chan error, len(addrs))
		for _, addr := range addrs {
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				stopAll(servers)
				return fmt.Errorf("listen on %s: %w", addr, err)
			}

			server := gogrpc.NewServer()
			clusternode.New(addr).Register(server)
			servers = append(servers, server)

			log.Printf("devnode listening on %s", addr)
			go func(server *gogrpc.Server, lis net.Listener, addr string) {
				if err := server.Serve(lis); err != nil {
					serveErr <- fmt.Errorf("serve node %s: %w", addr, err)
					return
				}
				serveErr <- nil
			}(server, lis, addr)
		}

		select {
		case <-ctx.Done():
			stopAll(servers)
			return nil
		case err := <-serveErr:
			stopAll(servers)
			return err
		}
	})
}

func stopAll(servers []*gogrpc.Server) {
	for _, server := range servers {
		server.GracefulStop()
	}
}

func splitAddrs(raw string) []string {
	var addrs []string
	for _, chunk := range strings.Split(raw, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		addrs = append(addrs, chunk)
	}
	return addrs
}
