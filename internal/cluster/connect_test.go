package cluster

import (
	"context"
	"errors"
	"testing"

	gogrpc "google.golang.org/grpc"

	platformerrors "github.com/quorumdeck/quorumdeck/internal/platform/errors"
	platformgrpc "github.com/quorumdeck/quorumdeck/internal/platform/grpc"
)

func TestConnectValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no endpoints", cfg: Config{AppID: "app", SignerAddress: "addr1"}},
		{name: "blank endpoint", cfg: Config{Endpoints: []string{" "}, AppID: "app", SignerAddress: "addr1"}},
		{name: "missing app id", cfg: Config{Endpoints: []string{"localhost:9701"}, SignerAddress: "addr1"}},
		{name: "missing signer", cfg: Config{Endpoints: []string{"localhost:9701"}, AppID: "app"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Connect(context.Background(), tc.cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, platformerrors.New(platformerrors.CodeInvalidArgument, "")) {
				t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
			}
		})
	}
}

func TestConnectWrapsDialFailure(t *testing.T) {
	dialErr := errors.New("refused")
	dialer := platformgrpc.DialerFunc(func(ctx context.Context, addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
		return nil, dialErr
	})

	_, err := Connect(context.Background(), Config{
		Endpoints:     []string{"localhost:9701"},
		AppID:         "app",
		SignerAddress: "addr1",
		Dialer:        dialer,
	})
	if err == nil {
		t.Fatal("expected connect error")
	}
	if !errors.Is(err, platformerrors.New(platformerrors.CodeConnectFailed, "")) {
		t.Fatalf("expected CONNECT_FAILED, got %v", err)
	}
	if !errors.Is(err, dialErr) {
		t.Fatal("expected dial cause in chain")
	}
}

func TestCallMetadataOmitsEmptyKey(t *testing.T) {
	md := callMetadata("app", "addr1", "")

	if got := md.Get("qd-app-id"); len(got) != 1 || got[0] != "app" {
		t.Fatalf("qd-app-id = %v, want [app]", got)
	}
	if got := md.Get("qd-signer-address"); len(got) != 1 || got[0] != "addr1" {
		t.Fatalf("qd-signer-address = %v, want [addr1]", got)
	}
	if got := md.Get("qd-private-key"); len(got) != 0 {
		t.Fatalf("expected no private key metadata, got %v", got)
	}

	withKey := callMetadata("app", "addr1", "secret")
	if got := withKey.Get("qd-private-key"); len(got) != 1 || got[0] != "secret" {
		t.Fatalf("qd-private-key = %v, want [secret]", got)
	}
}

func TestSessionSetNilSafety(t *testing.T) {
	var set *SessionSet
	if set.Size() != 0 {
		t.Fatal("expected zero size for nil set")
	}
	if set.Sessions() != nil {
		t.Fatal("expected nil sessions for nil set")
	}
	if err := set.Close(); err != nil {
		t.Fatalf("expected nil close error, got %v", err)
	}
}

func TestSessionRejectsEmptyQuery(t *testing.T) {
	session := &Session{addr: "localhost:9701", conn: nil}
	if _, err := session.Invoke(context.Background(), "get k"); err == nil {
		t.Fatal("expected error for disconnected session")
	}

	var nilSession *Session
	if nilSession.Addr() != "" {
		t.Fatal("expected empty addr for nil session")
	}
	if err := nilSession.Close(); err != nil {
		t.Fatalf("expected nil close error, got %v", err)
	}
}
