// Package ballot is a small in-memory ballot server used by the examples.
//
// It answers the two endpoints BallotBoard reads, GET /api/votes and
// GET /api/system, and accepts votes on POST /api/votes.
package ballot

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Box counts votes for a fixed list of options.
//
// Each client IP may vote at most once per wall-clock second.
type Box struct {
	options []string
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	counts   []uint64
	lastVote map[string]int64
}

// New creates a Box for the given options, in display order.
func New(logger *slog.Logger, options ...string) *Box {
	if logger == nil {
		logger = slog.Default()
	}
	return &Box{
		options:  options,
		logger:   logger,
		now:      time.Now,
		counts:   make([]uint64, len(options)),
		lastVote: make(map[string]int64),
	}
}

// Handler returns the ballot server's routes.
func (b *Box) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/votes", b.handleVotes)
	mux.HandleFunc("/api/system", b.handleSystem)
	return mux
}

// Cast records one vote for option, matched case-insensitively.
// It returns false if option is not on the ballot.
func (b *Box) Cast(option string) bool {
	i := b.indexOf(option)
	if i < 0 {
		return false
	}
	b.mu.Lock()
	b.counts[i]++
	b.mu.Unlock()
	return true
}

// Tally returns the current [label, count] pairs in ballot order.
func (b *Box) Tally() [][2]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	tally := make([][2]any, len(b.options))
	for i, opt := range b.options {
		tally[i] = [2]any{opt, b.counts[i]}
	}
	return tally
}

func (b *Box) indexOf(option string) int {
	option = strings.ToLower(option)
	for i, opt := range b.options {
		if strings.ToLower(opt) == option {
			return i
		}
	}
	return -1
}

func (b *Box) handleVotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"votes": b.Tally()})
	case http.MethodPost:
		b.handleCast(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type voteRequest struct {
	Vote string `json:"vote"`
}

func (b *Box) handleCast(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !b.allow(ip) {
		writeError(w, http.StatusTooManyRequests, "too many votes from this address; try again in a second")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be {\"vote\": \"<option>\"}")
		return
	}

	if !b.Cast(req.Vote) {
		writeError(w, http.StatusBadRequest,
			"not a valid vote; must be one of "+strings.Join(b.options, ", "))
		return
	}

	b.logger.Info("vote cast", "choice", strings.ToLower(req.Vote), "client", ip)
	writeJSON(w, http.StatusOK, map[string]any{"current_tally": b.Tally()})
}

// allow reports whether ip may vote now and records the attempt.
func (b *Box) allow(ip string) bool {
	sec := b.now().Unix()

	b.mu.Lock()
	defer b.mu.Unlock()

	if last, ok := b.lastVote[ip]; ok && sec-last < 1 {
		return false
	}
	b.lastVote[ip] = sec
	return true
}

func (b *Box) handleSystem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	address := LocalIPv4()
	if address == "" {
		writeError(w, http.StatusInternalServerError, "no non-loopback IPv4 address found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": address})
}

// LocalIPv4 returns the first non-loopback IPv4 address of this host, or "".
func LocalIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4.String()
		}
	}
	return ""
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
