package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T, probe Probe) (healthpb.HealthClient, context.CancelFunc, <-chan error) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := NewHealthServer(lis.Addr().String(), logging.Nop{}, probe, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		cancel()
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		cancel()
	})
	return healthpb.NewHealthClient(conn), cancel, done
}

func TestHealth_Serving(t *testing.T) {
	t.Parallel()
	client, _, _ := startServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, svc := range []string{"", ServiceName} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("Check(%q): %v", svc, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("Check(%q) = %v, want SERVING", svc, resp.GetStatus())
		}
	}
}

func TestHealth_FollowsProbe(t *testing.T) {
	t.Parallel()
	var failing atomic.Bool
	client, _, _ := startServer(t, func(context.Context) error {
		if failing.Load() {
			return errors.New("db down")
		}
		return nil
	})

	waitFor := func(want healthpb.HealthCheckResponse_ServingStatus) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
			cancel()
			if err == nil && resp.GetStatus() == want {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatalf("status never became %v", want)
	}

	waitFor(healthpb.HealthCheckResponse_SERVING)
	failing.Store(true)
	waitFor(healthpb.HealthCheckResponse_NOT_SERVING)
	failing.Store(false)
	waitFor(healthpb.HealthCheckResponse_SERVING)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	t.Parallel()
	_, cancel, done := startServer(t, nil)

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewHealthServer("127.0.0.1:99999", logging.Nop{}, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
