package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"workbench/internal/logging"
)

type mockHTTPServer struct {
	listenErr   error
	started     chan struct{}
	stopCh      chan struct{}
	shutdowns   atomic.Int32
	shutdownErr error
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{started: make(chan struct{}, 1), stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	select {
	case m.started <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	if m.shutdowns.Add(1) == 1 {
		close(m.stopCh)
	}
	return m.shutdownErr
}

// ─────────────────────────────────────────────────────────────
// HTTPServerService
// ─────────────────────────────────────────────────────────────

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	srv := newMockHTTPServer()
	svc := NewHTTPServerService(srv, ":0", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if n := srv.shutdowns.Load(); n != 1 {
		t.Errorf("expected 1 Shutdown call, got %d", n)
	}
}

func TestHTTPServerService_ListenError(t *testing.T) {
	srv := newMockHTTPServer()
	srv.listenErr = errors.New("address in use")
	svc := NewHTTPServerService(srv, ":0", time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Fatalf("expected wrapped listen error, got %v", err)
	}
}

func TestHTTPServerService_String(t *testing.T) {
	svc := NewHTTPServerService(newMockHTTPServer(), ":0", 0)
	if svc.String() != "http-server" {
		t.Errorf("unexpected name %q", svc.String())
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout, got %v", svc.shutdownTimeout)
	}
}

// ─────────────────────────────────────────────────────────────
// Tree
// ─────────────────────────────────────────────────────────────

type countingService struct {
	runs atomic.Int32
	fail bool
}

func (c *countingService) Serve(ctx context.Context) error {
	n := c.runs.Add(1)
	if c.fail && n == 1 {
		return errors.New("first run fails")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *countingService) String() string { return "counting" }

func TestTree_RestartsFailedWorker(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{FailureBackoff: 10 * time.Millisecond})
	worker := &countingService{fail: true}
	tree.AddWorker(worker)
	api := &countingService{}
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for worker.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if worker.runs.Load() < 2 {
		t.Fatalf("expected worker to be restarted, runs=%d", worker.runs.Load())
	}
	if api.runs.Load() > 1 {
		t.Errorf("api service should not restart, runs=%d", api.runs.Load())
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}
