package service

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"sync"
	"time"

	"workbench/internal/domain"
	"workbench/internal/logging"
)

// RequestOptions configures the curl proxy.
type RequestOptions struct {
	CurlPath string
	// Timeout bounds one curl run. Zero means no limit.
	Timeout time.Duration
}

// RequestService stores request templates and performs requests through
// a curl subprocess so the browser sees raw status lines and headers.
type RequestService struct {
	store domain.SavedRequestStore
	opts  RequestOptions

	mu sync.Mutex
}

func NewRequestService(store domain.SavedRequestStore, opts RequestOptions) *RequestService {
	if opts.CurlPath == "" {
		opts.CurlPath = "curl"
	}
	return &RequestService{store: store, opts: opts}
}

// ── Saved requests ─────────────────────────────────────────

func (s *RequestService) List() []domain.SavedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *RequestService) loadLocked() []domain.SavedRequest {
	rs, err := s.store.LoadRequests()
	if err != nil {
		log := logging.WithComponent("requests")
		log.Error().Err(err).Msg("load saved requests")
		return []domain.SavedRequest{}
	}
	return rs
}

// Save inserts r or replaces the saved request with the same name.
func (s *RequestService) Save(r domain.SavedRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.loadLocked()
	replaced := false
	for i := range rs {
		if rs[i].Name == r.Name {
			rs[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		rs = append(rs, r)
	}
	s.persistLocked(rs)
}

func (s *RequestService) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.loadLocked()
	kept := rs[:0]
	for _, r := range rs {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	s.persistLocked(kept)
}

func (s *RequestService) persistLocked(rs []domain.SavedRequest) {
	if err := s.store.SaveRequests(rs); err != nil {
		log := logging.WithComponent("requests")
		log.Error().Err(err).Msg("save saved requests")
	}
}

// ── Proxy ──────────────────────────────────────────────────

// BuildCurlArgs returns the curl argument list for req: -i -s -X METHOD,
// one -H per header in key order, -d BODY unless the body is empty or the
// method is GET or HEAD, then the URL.
func BuildCurlArgs(req domain.ProxyRequest) []string {
	args := []string{"-i", "-s", "-X", req.Method}

	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-H", k+": "+req.Headers[k])
	}

	if req.Body != "" && req.Method != "GET" && req.Method != "HEAD" {
		args = append(args, "-d", req.Body)
	}
	return append(args, req.URL)
}

// Run executes req with curl. It returns stdout, or stderr when stdout is
// empty, or "No response" when both are. A non-zero curl exit is not an
// error; only failing to start curl is.
func (s *RequestService) Run(ctx context.Context, req domain.ProxyRequest) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.opts.CurlPath, BuildCurlArgs(req)...)
	var stdout, stderr limitedBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to execute curl: %w", err)
		}
		logging.Ctx(ctx).Debug().Err(err).Str("url", req.URL).Msg("curl exited non-zero")
	}

	switch {
	case stdout.Len() > 0:
		return stdout.String(), nil
	case stderr.Len() > 0:
		return stderr.String(), nil
	default:
		return "No response", nil
	}
}
