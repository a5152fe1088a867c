package ballotboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ballotServer serves /api/votes from a mutable snapshot and /api/system
// with a fixed address.
type ballotServer struct {
	*httptest.Server

	mu      sync.Mutex
	votes   string
	address string
	status  int
}

func newBallotServer(t *testing.T, votes string) *ballotServer {
	t.Helper()
	bs := &ballotServer{votes: votes, address: "192.168.1.20", status: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/votes", func(w http.ResponseWriter, r *http.Request) {
		bs.mu.Lock()
		defer bs.mu.Unlock()
		w.WriteHeader(bs.status)
		_, _ = io.WriteString(w, bs.votes)
	})
	mux.HandleFunc("/api/system", func(w http.ResponseWriter, r *http.Request) {
		bs.mu.Lock()
		defer bs.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"address": bs.address})
	})

	bs.Server = httptest.NewServer(mux)
	t.Cleanup(bs.Close)
	return bs
}

func (bs *ballotServer) setStatus(code int) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.status = code
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	bs := newBallotServer(t, `{"votes": [["summer1", 1]]}`)

	bb, err := New(
		WithBaseURL(bs.URL),
		WithPort(19101),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- bb.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	bb, err := New(WithPort(19102), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- bb.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return with already-cancelled context")
	}
}

func TestStart_PortInUse(t *testing.T) {
	bb1, _ := New(WithPort(19103), WithLogger(testLogger()))
	bb2, _ := New(WithPort(19103), WithLogger(testLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = bb1.Start(ctx) }()
	time.Sleep(100 * time.Millisecond)

	err := bb2.Start(ctx)
	if err == nil || !strings.Contains(err.Error(), "failed to start HTTP server") {
		t.Errorf("Start() error = %v, want bind failure", err)
	}
}

// TestStart_ServesRenderedRows runs the whole pipeline: the ballot server's
// snapshot is polled, rendered into the table and served on /api/rows with
// the substituted command.
func TestStart_ServesRenderedRows(t *testing.T) {
	bs := newBallotServer(t, `{"votes": [["summer1", 3], ["summer2", 1]]}`)

	bb, err := New(
		WithBaseURL(bs.URL),
		WithOptions("summer1", "summer2"),
		WithCommand("curl http://localhost:8080/api/votes"),
		WithPollingInterval(100*time.Millisecond),
		WithPort(19104),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bb.Start(ctx) }()

	type row struct {
		Label string  `json:"label"`
		Size  float64 `json:"size"`
		Text  string  `json:"text"`
	}
	var view struct {
		Command string `json:"command"`
		Rows    []row  `json:"rows"`
	}

	waitFor(t, 3*time.Second, func() bool {
		resp, err := http.Get("http://127.0.0.1:19104/api/rows")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
			return false
		}
		return len(view.Rows) == 2 && view.Rows[0].Text == "75.0%" &&
			strings.Contains(view.Command, "192.168.1.20")
	})

	if view.Command != "curl http://192.168.1.20:8080/api/votes" {
		t.Errorf("Command = %q", view.Command)
	}
	if view.Rows[0].Size != 0.75 || view.Rows[1].Text != "25.0%" || view.Rows[1].Label != "summer2" {
		t.Errorf("Rows = %+v", view.Rows)
	}
}

func TestWatch_DrawsChart(t *testing.T) {
	bs := newBallotServer(t, `{"votes": [["Yes", 3], ["No", 1]]}`)

	bb, err := New(
		WithBaseURL(bs.URL),
		WithOptions("Yes", "No"),
		WithTitle("Referendum"),
		WithPollingInterval(100*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var rendered atomic.Bool
	out := &syncBuffer{}
	bb.resultCallbacks = append(bb.resultCallbacks, func(r PollResult) {
		if r.Err == nil {
			rendered.Store(true)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bb.Watch(ctx, out) }()

	waitFor(t, 3*time.Second, rendered.Load)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"Referendum", "Yes", "75.0%", "25.0%"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWatch_ShowsCommandWhileVotesFail(t *testing.T) {
	bs := newBallotServer(t, `{"votes": []}`)
	bs.setStatus(http.StatusServiceUnavailable)

	bb, err := New(
		WithBaseURL(bs.URL),
		WithOptions("Yes", "No"),
		WithCommand("curl http://localhost:8080/api/votes"),
		WithPollingInterval(100*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var succeeded atomic.Bool
	bb.resultCallbacks = append(bb.resultCallbacks, func(r PollResult) {
		if r.Err == nil {
			succeeded.Store(true)
		}
	})

	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bb.Watch(ctx, out) }()

	waitFor(t, 3*time.Second, func() bool {
		return strings.Contains(out.String(), "curl http://192.168.1.20:8080/api/votes")
	})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if !strings.Contains(out.String(), "curl http://localhost:8080/api/votes") {
		t.Error("output missing command template")
	}
	if succeeded.Load() {
		t.Error("a poll succeeded; the command must be drawn without one")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWithResultCallback_ReceivesSnapshot(t *testing.T) {
	bs := newBallotServer(t, `{"votes": [["summer1", 3], ["summer2", 1]]}`)

	var mu sync.Mutex
	var result PollResult
	done := make(chan struct{})

	bb, err := New(
		WithBaseURL(bs.URL),
		WithPort(19105),
		WithLogger(testLogger()),
		WithResultCallback(func(r PollResult) {
			mu.Lock()
			defer mu.Unlock()
			if result.Seq == 0 {
				result = r
				close(done)
			}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = bb.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for callback")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()

	if result.Err != nil {
		t.Fatalf("Err = %v, want nil", result.Err)
	}
	if result.URL != bs.URL+"/api/votes" {
		t.Errorf("URL = %q", result.URL)
	}
	if result.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if result.StartedAt.IsZero() {
		t.Error("StartedAt should not be zero")
	}
	want := []VoteRecord{{"summer1", 3}, {"summer2", 1}}
	if len(result.Snapshot) != 2 || result.Snapshot[0] != want[0] || result.Snapshot[1] != want[1] {
		t.Errorf("Snapshot = %+v, want %+v", result.Snapshot, want)
	}
	if len(result.Shares) != 2 || result.Shares[0].Text != "75.0%" || result.Shares[1].Percentage != 25 {
		t.Errorf("Shares = %+v", result.Shares)
	}
}

func TestWithResultCallback_ReportsHTTPStatus(t *testing.T) {
	bs := newBallotServer(t, `oops`)
	bs.setStatus(http.StatusServiceUnavailable)

	errs := make(chan error, 10)
	bb, err := New(
		WithBaseURL(bs.URL),
		WithPort(19106),
		WithLogger(testLogger()),
		WithResultCallback(func(r PollResult) {
			select {
			case errs <- r.Err:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bb.Start(ctx) }()

	select {
	case err := <-errs:
		if !errors.Is(err, ErrHTTPStatus) {
			t.Errorf("Err = %v, want ErrHTTPStatus", err)
		}
		if KindOf(err) != HTTPStatusError {
			t.Errorf("KindOf() = %v, want %v", KindOf(err), HTTPStatusError)
		}
		var pe *PollError
		if !errors.As(err, &pe) || pe.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("PollError = %+v, want status 503", pe)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for callback")
	}
}

func TestWithResultCallback_PanicRecovery(t *testing.T) {
	bs := newBallotServer(t, `{"votes": []}`)

	var logBuf syncBuffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	var normalCalled atomic.Bool
	bb, err := New(
		WithBaseURL(bs.URL),
		WithResultCallback(func(PollResult) { panic("intentional test panic") }),
		WithResultCallback(func(PollResult) { normalCalled.Store(true) }),
		WithLogger(logger),
		WithPollingInterval(100*time.Millisecond),
		WithPort(19107),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := bb.Start(ctx); err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}

	if !normalCalled.Load() {
		t.Error("subsequent callbacks should still run after panic")
	}
	logOutput := logBuf.String()
	if !strings.Contains(logOutput, "result callback panicked") {
		t.Errorf("panic should have been logged, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "correlation_id=") {
		t.Error("panic log should carry a correlation ID")
	}
}

func TestWithResultCallback_RegistrationOrder(t *testing.T) {
	bs := newBallotServer(t, `{"votes": [["a", 1]]}`)

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})
	var once sync.Once

	record := func(n int) func(PollResult) {
		return func(PollResult) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, n)
			if len(order) >= 3 {
				once.Do(func() { close(done) })
			}
		}
	}

	bb, err := New(
		WithBaseURL(bs.URL),
		WithResultCallback(record(1)),
		WithResultCallback(record(2)),
		WithResultCallback(record(3)),
		WithPollingInterval(time.Hour),
		WithPort(19108),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bb.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for callbacks")
	}

	mu.Lock()
	defer mu.Unlock()
	if order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

func TestSubstituteAddress_FailureKeepsTemplate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/votes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"votes": []}`)
	})
	mux.HandleFunc("/api/system", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var logBuf syncBuffer
	bb, err := New(
		WithBaseURL(ts.URL),
		WithCommand("curl http://localhost:8080"),
		WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	surface := &commandRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bb.run(ctx, surface)
		close(done)
	}()

	waitFor(t, 3*time.Second, func() bool {
		return strings.Contains(logBuf.String(), "address lookup failed")
	})
	cancel()
	<-done

	if got := surface.commands(); len(got) != 1 || got[0] != "curl http://localhost:8080" {
		t.Errorf("commands = %v, want template only", got)
	}
}

// commandRecorder is a zero-row surface that records every command shown.
type commandRecorder struct {
	mu   sync.Mutex
	cmds []string
}

func (c *commandRecorder) Rows() int { return 0 }

func (c *commandRecorder) SetRow(int, string, float64, string) error { return nil }

func (c *commandRecorder) SetCommand(command string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmds = append(c.cmds, command)
}

func (c *commandRecorder) commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.cmds...)
}
