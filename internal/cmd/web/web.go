// Package web wires configuration for the web console service.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	platformcmd "github.com/quorumdeck/quorumdeck/internal/platform/cmd"
	"github.com/quorumdeck/quorumdeck/internal/services/web"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr           string        `env:"QUORUMDECK_WEB_HTTP_ADDR" envDefault:"localhost:8086"`
	SessionKey         string        `env:"QUORUMDECK_WEB_SESSION_KEY"`
	PollInterval       time.Duration `env:"QUORUMDECK_WEB_POLL_INTERVAL" envDefault:"500ms"`
	ClusterDialTimeout time.Duration `env:"QUORUMDECK_WEB_CLUSTER_DIAL_TIMEOUT" envDefault:"5s"`
}

// ParseConfig loads env defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{}
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.SessionKey, "session-key", cfg.SessionKey, "session cookie signing key")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "cluster status poll interval")
	fs.DurationVar(&cfg.ClusterDialTimeout, "cluster-dial-timeout", cfg.ClusterDialTimeout, "per-node dial timeout")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run starts the web console server.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceWeb, func(ctx context.Context) error {
		sessionKey := strings.TrimSpace(cfg.SessionKey)
		if sessionKey == "" {
			// Console sessions are in-memory, so an ephemeral key only costs
			// cookie validity across restarts.
			generated, err := ephemeralKey()
			if err != nil {
				return fmt.Errorf("generate session key: %w", err)
			}
			log.Printf("QUORUMDECK_WEB_SESSION_KEY not set, using an ephemeral key")
			sessionKey = generated
		}

		server, err := web.NewServer(ctx, web.Config{
			HTTPAddr:           cfg.HTTPAddr,
			SessionKey:         sessionKey,
			PollInterval:       cfg.PollInterval,
			ClusterDialTimeout: cfg.ClusterDialTimeout,
		})
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}

func ephemeralKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
