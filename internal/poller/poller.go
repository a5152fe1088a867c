package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/ballotboard/internal/tally"
)

const (
	// DefaultInterval is the time between poll starts.
	DefaultInterval = 500 * time.Millisecond

	// DefaultTimeout bounds a single votes request.
	DefaultTimeout = 10 * time.Second
)

// Surface is a display that snapshots are rendered into.
//
// Rows are addressed by position. Implementations must be safe for concurrent
// use: overlapping polls may render from different goroutines.
type Surface interface {
	// Rows returns how many display rows are available.
	Rows() int

	// SetRow writes a label, a proportional size in [0, 1] and the
	// percentage text into row i.
	SetRow(i int, label string, size float64, text string) error
}

// Flusher is implemented by surfaces that draw a whole frame at once.
// Flush is called after every row of a snapshot has been written.
type Flusher interface {
	Flush() error
}

// Config holds the settings for a [VotePoller].
type Config struct {
	// URL is the full votes endpoint URL.
	URL string

	// Headers are sent with every request.
	Headers map[string]string

	// Timeout bounds each request. Zero means [DefaultTimeout].
	Timeout time.Duration

	// Interval is the time between poll starts. Zero means [DefaultInterval].
	Interval time.Duration

	// VotesPath locates the votes array in the response body.
	// Empty means [DefaultVotesPath].
	VotesPath string

	// DiscardStale drops a completion that started before the most recently
	// rendered poll. When false the last completion wins.
	DiscardStale bool
}

// Result is the outcome of a single poll.
type Result struct {
	// Seq is the poll's sequence number, assigned when it starts.
	Seq uint64

	// URL is the votes endpoint that was polled.
	URL string

	// StartedAt is when the poll began.
	StartedAt time.Time

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// StatusCode is the HTTP status, zero if no response arrived.
	StatusCode int

	// Votes is the decoded snapshot. nil on fetch or decode failure.
	Votes []tally.Vote

	// Shares are the computed display values for Votes.
	Shares []tally.Share

	// Err is a *PollError describing the failure, or nil.
	Err error

	// Stale is true when the snapshot was discarded as out of order.
	Stale bool
}

// VotePoller periodically fetches a votes snapshot and renders it.
//
// Each tick starts an independent poll: a slow response never delays or
// cancels the next one, and overlapping polls race to render. Failures are
// logged and leave the display as it was; they never stop the loop.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type VotePoller struct {
	cfg      Config
	surface  Surface
	client   *Client
	logger   *slog.Logger
	onResult func(Result)

	seq          atomic.Uint64
	renderMu     sync.Mutex
	lastRendered uint64

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewVotePoller creates a [VotePoller] rendering into surface.
//
// onResult, if not nil, is called with every poll's [Result] after it has
// been logged. It is called from the poll's goroutine and may run
// concurrently with itself.
func NewVotePoller(cfg Config, surface Surface, logger *slog.Logger, onResult func(Result)) *VotePoller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.VotesPath == "" {
		cfg.VotesPath = DefaultVotesPath
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &VotePoller{
		cfg:      cfg,
		surface:  surface,
		client:   NewClient(),
		logger:   logger,
		onResult: onResult,
	}
}

// Interval returns the configured time between poll starts.
func (p *VotePoller) Interval() time.Duration {
	return p.cfg.Interval
}

// Start polls once immediately, then once per interval, in the background.
//
// Start is non-blocking. The loop runs until [VotePoller.Stop] is called or
// ctx is cancelled. If ctx is nil, context.Background() is used.
// Start is idempotent; if Stop was called first, Start is a no-op.
func (p *VotePoller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		p.launch(ctx)

		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.launch(ctx)
			}
		}
	}()
}

// Stop halts the timer, cancels in-flight polls and waits for them to return.
//
// Stop is idempotent and safe to call before Start.
func (p *VotePoller) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		if p.cancel != nil {
			p.cancel()
		}
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.client.Close()
}

// launch starts one fire-and-forget poll.
func (p *VotePoller) launch(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.handleResult(ctx, p.Poll(ctx))
	}()
}

// Poll fetches, decodes and renders one snapshot.
//
// Poll never panics and never returns an error directly: any failure is
// carried in [Result.Err] as a *PollError, and the display is only touched
// once the snapshot has been fetched and decoded successfully.
func (p *VotePoller) Poll(ctx context.Context) Result {
	seq := p.seq.Add(1)
	result := Result{
		Seq:       seq,
		URL:       p.cfg.URL,
		StartedAt: time.Now(),
	}

	resp := p.client.Fetch(ctx, p.cfg.URL, p.cfg.Headers, p.cfg.Timeout)
	result.Latency = resp.Latency
	result.StatusCode = resp.StatusCode

	if resp.Error != nil {
		result.Err = networkError(resp.Error)
		return result
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Err = statusError(resp.StatusCode, resp.Status)
		return result
	}

	votes, err := DecodeVotes(resp.Body, p.cfg.VotesPath)
	if err != nil {
		result.Err = decodeError(err)
		return result
	}
	result.Votes = votes
	result.Shares = tally.Compute(votes)

	stale, err := p.render(seq, result.Shares)
	result.Stale = stale
	if err != nil {
		result.Err = err
	}
	return result
}

// Draw runs fn while no snapshot is being rendered, so a caller changing the
// surface outside of a poll never lands between one snapshot's rows.
func (p *VotePoller) Draw(fn func()) {
	p.renderMu.Lock()
	defer p.renderMu.Unlock()
	fn()
}

// render writes shares to the surface unless the poll is stale.
//
// Renders are serialized so one snapshot's rows are never interleaved with
// another's. Which snapshot lands last still depends on arrival order.
func (p *VotePoller) render(seq uint64, shares []tally.Share) (stale bool, err error) {
	p.renderMu.Lock()
	defer p.renderMu.Unlock()

	if p.cfg.DiscardStale && seq < p.lastRendered {
		return true, nil
	}
	if seq > p.lastRendered {
		p.lastRendered = seq
	}

	return false, p.safeRender(shares)
}

// safeRender calls the surface with panic recovery.
// If the surface panics, it logs the full stack trace with a correlation ID
// and returns a render error containing the ID.
func (p *VotePoller) safeRender(shares []tally.Share) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("surface panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = renderError(fmt.Errorf("surface panic (correlation_id: %s)", correlationID))
		}
	}()
	return p.writeRows(shares)
}

// writeRows renders as many shares as the surface has rows for.
// Records beyond the last row are reported after the rest are drawn.
func (p *VotePoller) writeRows(shares []tally.Share) error {
	if len(shares) == 0 {
		return nil
	}

	rows := p.surface.Rows()
	n := min(len(shares), rows)

	for i := 0; i < n; i++ {
		s := shares[i]
		if err := p.surface.SetRow(i, s.Label, s.Size, s.Text); err != nil {
			return renderError(fmt.Errorf("row %d: %w", i, err))
		}
	}

	if f, ok := p.surface.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return renderError(fmt.Errorf("flush: %w", err))
		}
	}

	if len(shares) > rows {
		return renderError(fmt.Errorf("%d vote records but only %d display rows", len(shares), rows))
	}
	return nil
}

// handleResult is the single place that decides what a poll outcome means:
// failures are logged and skipped, successes are logged at debug.
func (p *VotePoller) handleResult(ctx context.Context, r Result) {
	switch {
	case r.Err != nil && ctx.Err() != nil:
		p.logger.Debug("poll abandoned", "seq", r.Seq, "error", r.Err.Error())

	case r.Err != nil:
		attrs := []any{
			"seq", r.Seq,
			"url", r.URL,
			"kind", KindOf(r.Err).String(),
			"latency_ms", r.Latency.Milliseconds(),
			"error", r.Err.Error(),
		}
		if r.StatusCode != 0 {
			attrs = append(attrs, "status_code", r.StatusCode)
		}
		p.logger.Warn("poll failed", attrs...)

	case r.Stale:
		p.logger.Debug("stale poll discarded", "seq", r.Seq)

	default:
		p.logger.Debug("poll rendered",
			"seq", r.Seq,
			"options", len(r.Votes),
			"total", tally.Total(r.Votes),
			"latency_ms", r.Latency.Milliseconds(),
		)
	}

	if p.onResult != nil {
		p.onResult(r)
	}
}

// KindOf returns the [ErrorKind] of err, or 0 if err is not a *PollError.
func KindOf(err error) ErrorKind {
	var pe *PollError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
