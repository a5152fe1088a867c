package config

import (
	"sort"

	"github.com/jpalmerr/ballotboard"
)

// BuildOptions converts parsed configuration into SDK options for [ballotboard.New].
//
// Empty fields are left out so the SDK defaults apply.
func BuildOptions(cfg *Config) []ballotboard.Option {
	opts := []ballotboard.Option{
		ballotboard.WithBaseURL(cfg.BaseURL),
		ballotboard.WithPort(cfg.Port),
		ballotboard.WithPollingInterval(cfg.PollInterval.Duration()),
		ballotboard.WithDiscardStale(cfg.DiscardStale),
	}

	if cfg.Title != "" {
		opts = append(opts, ballotboard.WithTitle(cfg.Title))
	}
	if cfg.Timeout != 0 {
		opts = append(opts, ballotboard.WithTimeout(cfg.Timeout.Duration()))
	}
	if cfg.VotesPath != "" {
		opts = append(opts, ballotboard.WithVotesPath(cfg.VotesPath))
	}
	if cfg.SystemPath != "" {
		opts = append(opts, ballotboard.WithSystemPath(cfg.SystemPath))
	}
	if cfg.VotesField != "" {
		opts = append(opts, ballotboard.WithVotesField(cfg.VotesField))
	}
	if cfg.Command != "" {
		opts = append(opts, ballotboard.WithCommand(cfg.Command))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, ballotboard.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	if len(cfg.Options.Labels) > 0 {
		opts = append(opts, ballotboard.WithOptions(cfg.Options.Labels...))
	} else {
		opts = append(opts, ballotboard.WithRows(cfg.Options.Rows))
	}

	return opts
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
