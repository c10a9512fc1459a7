// Package main generates the web console's session signing key.
package main

import (
	"flag"
	"os"

	"github.com/quorumdeck/quorumdeck/internal/platform/config"
	"github.com/quorumdeck/quorumdeck/internal/tools/sessionkey"
)

func main() {
	cfg, err := sessionkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := sessionkey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate session key: %v", err)
	}
}
