package ballotboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// minPollingInterval keeps a misconfigured board from hammering the ballot server.
const minPollingInterval = 100 * time.Millisecond

// bbConfig holds mutable state during BallotBoard construction.
type bbConfig struct {
	title           string
	baseURL         string
	votesPath       string
	systemPath      string
	votesField      string
	labels          []string
	rows            int
	command         string
	headers         map[string]string
	pollingInterval time.Duration
	timeout         time.Duration
	discardStale    bool
	port            int
	logger          *slog.Logger
	resultCallbacks []func(PollResult)
}

// Option is a function that configures a [BallotBoard] during construction.
//
// Options return an error if validation fails; [New] stops at the first one.
type Option func(*bbConfig) error

// WithBaseURL sets the ballot server's base URL. The votes and system paths
// are joined onto it. Defaults to http://localhost:8080.
//
// Returns an error if the URL is not an absolute http or https URL.
func WithBaseURL(rawURL string) Option {
	return func(cfg *bbConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base URL must use http or https, got %q", rawURL)
		}
		if u.Host == "" {
			return fmt.Errorf("base URL must include a host, got %q", rawURL)
		}
		cfg.baseURL = rawURL
		return nil
	}
}

// WithVotesPath sets the path of the votes endpoint. Defaults to /api/votes.
func WithVotesPath(path string) Option {
	return func(cfg *bbConfig) error {
		if path == "" {
			return errors.New("votes path cannot be empty")
		}
		cfg.votesPath = path
		return nil
	}
}

// WithSystemPath sets the path of the endpoint reporting the server's
// address. Defaults to /api/system.
func WithSystemPath(path string) Option {
	return func(cfg *bbConfig) error {
		if path == "" {
			return errors.New("system path cannot be empty")
		}
		cfg.systemPath = path
		return nil
	}
}

// WithVotesField sets where the votes array sits in the response body,
// using dot notation for nested objects ("data.votes"). Defaults to "votes".
func WithVotesField(field string) Option {
	return func(cfg *bbConfig) error {
		if field == "" {
			return errors.New("votes field cannot be empty")
		}
		cfg.votesField = field
		return nil
	}
}

// WithOptions creates one display row per label, in ballot order.
//
// The labels are shown before the first poll; each poll then overwrites a
// row's label with the one the server reports for that position.
//
// Example:
//
//	bb, err := ballotboard.New(
//	    ballotboard.WithOptions("summer1", "summer2"),
//	)
//
// Returns an error if no labels are given.
func WithOptions(labels ...string) Option {
	return func(cfg *bbConfig) error {
		if len(labels) == 0 {
			return errors.New("at least one option label is required")
		}
		cfg.labels = append([]string(nil), labels...)
		return nil
	}
}

// WithRows sets the number of unlabelled display rows. It is ignored when
// [WithOptions] is used. Defaults to 2.
//
// Snapshots with more records than rows render the rows that fit and report
// [ErrRender].
func WithRows(n int) Option {
	return func(cfg *bbConfig) error {
		if n <= 0 {
			return errors.New("rows must be positive")
		}
		cfg.rows = n
		return nil
	}
}

// WithCommand sets the vote command shown alongside the chart. The first
// "localhost" in it is replaced once, at start, with the address reported by
// the system endpoint.
//
// Example:
//
//	ballotboard.WithCommand(`curl -X POST -d '{"vote":"summer1"}' http://localhost:8080/api/votes`)
func WithCommand(command string) Option {
	return func(cfg *bbConfig) error {
		cfg.command = command
		return nil
	}
}

// WithHeaders adds HTTP headers sent with every request, as key-value pairs.
//
// Returns an error if an odd number of arguments is given or a key is empty.
func WithHeaders(kv ...string) Option {
	return func(cfg *bbConfig) error {
		if len(kv)%2 != 0 {
			return errors.New("headers must be key-value pairs")
		}
		for i := 0; i < len(kv); i += 2 {
			if kv[i] == "" {
				return errors.New("header key cannot be empty")
			}
			cfg.headers[kv[i]] = kv[i+1]
		}
		return nil
	}
}

// WithPollingInterval sets the time between poll starts.
//
// Polls are not serialized: if a response takes longer than the interval the
// next poll starts anyway. Defaults to 500ms.
//
// Returns an error if the interval is below 100ms.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *bbConfig) error {
		if d < minPollingInterval {
			return fmt.Errorf("polling interval must be at least %s", minPollingInterval)
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithTimeout bounds each HTTP request. Defaults to 10s.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *bbConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithDiscardStale drops a snapshot that arrives after a newer poll's
// snapshot was already drawn. By default the last response to arrive wins.
func WithDiscardStale(enabled bool) Option {
	return func(cfg *bbConfig) error {
		cfg.discardStale = enabled
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *bbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *bbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithResultCallback registers a function to be called after every poll.
//
// Multiple callbacks run in registration order. Polls overlap, so callbacks
// may be invoked concurrently and must be safe for that. Panics within
// callbacks are recovered and logged; they do not stop polling.
//
// Example:
//
//	ballotboard.WithResultCallback(func(r ballotboard.PollResult) {
//	    if errors.Is(r.Err, ballotboard.ErrNetwork) {
//	        log.Printf("ballot server unreachable: %v", r.Err)
//	    }
//	})
//
// Nil callbacks are silently ignored.
func WithResultCallback(cb func(PollResult)) Option {
	return func(cfg *bbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.resultCallbacks = append(cfg.resultCallbacks, cb)
		return nil
	}
}

// WithTitle sets the chart title. If not specified, defaults to "BallotBoard".
func WithTitle(title string) Option {
	return func(cfg *bbConfig) error {
		cfg.title = title
		return nil
	}
}
