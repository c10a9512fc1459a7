// Package main starts a local development cluster.
//
// This process serves one in-memory node per configured address so the web
// and MCP services can run without a real cluster.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	devnodecmd "github.com/quorumdeck/quorumdeck/internal/cmd/devnode"
)

func main() {
	cfg, err := devnodecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[DEVNODE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := devnodecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
