package devnode

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("devnode", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	addrs := splitAddrs(cfg.ListenAddrs)
	if len(addrs) != 3 {
		t.Fatalf("addrs = %v, want three local defaults", addrs)
	}
	if addrs[2] != "localhost:9703" {
		t.Fatalf("addrs[2] = %q, want localhost:9703", addrs[2])
	}
}

func TestParseConfigFlagOverride(t *testing.T) {
	fs := flag.NewFlagSet("devnode", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-listen-addrs", "127.0.0.1:7001"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	addrs := splitAddrs(cfg.ListenAddrs)
	if len(addrs) != 1 || addrs[0] != "127.0.0.1:7001" {
		t.Fatalf("addrs = %v, want [127.0.0.1:7001]", addrs)
	}
}

func TestSplitAddrsDropsBlanks(t *testing.T) {
	if got := splitAddrs(" a:1 ,, b:2 "); len(got) != 2 {
		t.Fatalf("splitAddrs = %v, want two entries", got)
	}
	if got := splitAddrs(""); got != nil {
		t.Fatalf("splitAddrs = %v, want nil", got)
	}
}
