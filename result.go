package ballotboard

import (
	"time"

	"github.com/jpalmerr/ballotboard/internal/poller"
	"github.com/jpalmerr/ballotboard/internal/tally"
)

// VoteRecord is one option's label and vote count from a snapshot.
type VoteRecord struct {
	Label string
	Count uint64
}

// Share is a [VoteRecord] together with the values drawn for it.
type Share struct {
	Label string
	Count uint64

	// Percentage is the option's share of the total, 0 to 100.
	Percentage float64

	// Size is Percentage/100, the proportional bar length.
	Size float64

	// Text is Percentage with one decimal place and a "%" suffix.
	Text string
}

// PollResult describes the outcome of a single poll.
//
// PollResult is passed to callbacks registered via [WithResultCallback].
// Snapshot and Shares are copies; callbacks may retain them.
type PollResult struct {
	// Seq numbers polls in the order they started, from 1.
	Seq uint64

	// URL is the votes endpoint that was polled.
	URL string

	// StartedAt is when the poll began.
	StartedAt time.Time

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// StatusCode is the HTTP status, zero if no response arrived.
	StatusCode int

	// Snapshot is the decoded vote list, nil if fetching or decoding failed.
	Snapshot []VoteRecord

	// Shares are the values rendered for Snapshot.
	Shares []Share

	// Err is nil on success. Otherwise it is a *[PollError] and matches one
	// of [ErrNetwork], [ErrHTTPStatus], [ErrDecode] or [ErrRender] with errors.Is.
	Err error

	// Stale is true when the snapshot arrived after a newer one had been
	// rendered and was discarded. See [WithDiscardStale].
	Stale bool
}

// ErrorKind classifies a poll failure.
type ErrorKind = poller.ErrorKind

// PollError is a poll failure tagged with its [ErrorKind].
type PollError = poller.PollError

// Kinds of poll failure.
const (
	NetworkError    = poller.KindNetwork
	HTTPStatusError = poller.KindHTTPStatus
	DecodeError     = poller.KindDecode
	RenderError     = poller.KindRender
)

// Sentinel errors for use with errors.Is.
var (
	ErrNetwork    = poller.ErrNetwork
	ErrHTTPStatus = poller.ErrHTTPStatus
	ErrDecode     = poller.ErrDecode
	ErrRender     = poller.ErrRender
)

// KindOf returns the [ErrorKind] of err, or 0 if err is not a *[PollError].
func KindOf(err error) ErrorKind {
	return poller.KindOf(err)
}

func toPublicResult(r poller.Result) PollResult {
	return PollResult{
		Seq:        r.Seq,
		URL:        r.URL,
		StartedAt:  r.StartedAt,
		Latency:    r.Latency,
		StatusCode: r.StatusCode,
		Snapshot:   toVoteRecords(r.Votes),
		Shares:     toShares(r.Shares),
		Err:        r.Err,
		Stale:      r.Stale,
	}
}

func toVoteRecords(votes []tally.Vote) []VoteRecord {
	if votes == nil {
		return nil
	}
	out := make([]VoteRecord, len(votes))
	for i, v := range votes {
		out[i] = VoteRecord{Label: v.Label, Count: v.Count}
	}
	return out
}

func toShares(shares []tally.Share) []Share {
	if shares == nil {
		return nil
	}
	out := make([]Share, len(shares))
	for i, s := range shares {
		out[i] = Share(s)
	}
	return out
}
