package ballotboard

import (
	"strings"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	bb, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if bb.Port() != 8080 {
		t.Errorf("Port() = %d, want 8080", bb.Port())
	}
	if bb.PollingInterval() != 500*time.Millisecond {
		t.Errorf("PollingInterval() = %v, want 500ms", bb.PollingInterval())
	}
	if bb.VotesURL() != "http://localhost:8080/api/votes" {
		t.Errorf("VotesURL() = %q", bb.VotesURL())
	}
	if bb.SystemURL() != "http://localhost:8080/api/system" {
		t.Errorf("SystemURL() = %q", bb.SystemURL())
	}
	if len(bb.Labels()) != 2 {
		t.Errorf("len(Labels()) = %d, want 2", len(bb.Labels()))
	}
	if bb.timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", bb.timeout)
	}
	if bb.votesField != "votes" {
		t.Errorf("votesField = %q, want votes", bb.votesField)
	}
	if bb.discardStale {
		t.Error("discardStale should default to false")
	}
}

func TestWithBaseURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantVotes string
		wantErr   string
	}{
		{"http", "http://10.0.0.5:8080", "http://10.0.0.5:8080/api/votes", ""},
		{"https with trailing slash", "https://ballot.example.com/", "https://ballot.example.com/api/votes", ""},
		{"with prefix", "http://host/ballot", "http://host/ballot/api/votes", ""},
		{"no scheme", "localhost:8080", "", "http or https"},
		{"ftp", "ftp://host", "", "http or https"},
		{"no host", "http://", "", "must include a host"},
		{"unparseable", "http://[::1", "", "invalid base URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bb, err := New(WithBaseURL(tt.url))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("New() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if bb.VotesURL() != tt.wantVotes {
				t.Errorf("VotesURL() = %q, want %q", bb.VotesURL(), tt.wantVotes)
			}
		})
	}
}

func TestWithPaths(t *testing.T) {
	bb, err := New(
		WithBaseURL("http://ballot:9000"),
		WithVotesPath("/v2/tally"),
		WithSystemPath("whoami"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if bb.VotesURL() != "http://ballot:9000/v2/tally" {
		t.Errorf("VotesURL() = %q", bb.VotesURL())
	}
	if bb.SystemURL() != "http://ballot:9000/whoami" {
		t.Errorf("SystemURL() = %q", bb.SystemURL())
	}
}

func TestWithPaths_Empty(t *testing.T) {
	if _, err := New(WithVotesPath("")); err == nil {
		t.Error("WithVotesPath(\"\") expected error")
	}
	if _, err := New(WithSystemPath("")); err == nil {
		t.Error("WithSystemPath(\"\") expected error")
	}
	if _, err := New(WithVotesField("")); err == nil {
		t.Error("WithVotesField(\"\") expected error")
	}
}

func TestWithOptions(t *testing.T) {
	labels := []string{"summer1", "summer2", "summer3"}
	bb, err := New(WithOptions(labels...), WithRows(7))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := bb.Labels()
	if len(got) != 3 || got[0] != "summer1" || got[2] != "summer3" {
		t.Errorf("Labels() = %v, want %v", got, labels)
	}

	// caller's slice and the returned copy are independent
	labels[0] = "changed"
	got[1] = "changed"
	if again := bb.Labels(); again[0] != "summer1" || again[1] != "summer2" {
		t.Errorf("Labels() = %v, should not be affected by mutation", again)
	}
}

func TestWithOptions_Empty(t *testing.T) {
	_, err := New(WithOptions())
	if err == nil || !strings.Contains(err.Error(), "at least one option") {
		t.Errorf("New() error = %v, want 'at least one option'", err)
	}
}

func TestWithRows(t *testing.T) {
	bb, err := New(WithRows(4))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(bb.Labels()) != 4 {
		t.Errorf("len(Labels()) = %d, want 4", len(bb.Labels()))
	}

	for _, n := range []int{0, -1} {
		if _, err := New(WithRows(n)); err == nil {
			t.Errorf("WithRows(%d) expected error", n)
		}
	}
}

func TestWithHeaders(t *testing.T) {
	bb, err := New(WithHeaders("Authorization", "Bearer x", "X-Ballot", "summer"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if bb.headers["Authorization"] != "Bearer x" || bb.headers["X-Ballot"] != "summer" {
		t.Errorf("headers = %v", bb.headers)
	}

	if _, err := New(WithHeaders("odd")); err == nil {
		t.Error("odd header args expected error")
	}
	if _, err := New(WithHeaders("", "v")); err == nil {
		t.Error("empty header key expected error")
	}
}

func TestWithPollingInterval(t *testing.T) {
	tests := []struct {
		name    string
		d       time.Duration
		wantErr bool
	}{
		{"default cadence", 500 * time.Millisecond, false},
		{"minimum", 100 * time.Millisecond, false},
		{"slow", time.Minute, false},
		{"too fast", 50 * time.Millisecond, true},
		{"zero", 0, true},
		{"negative", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bb, err := New(WithPollingInterval(tt.d))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && bb.PollingInterval() != tt.d {
				t.Errorf("PollingInterval() = %v, want %v", bb.PollingInterval(), tt.d)
			}
		})
	}
}

func TestWithTimeout(t *testing.T) {
	bb, err := New(WithTimeout(2 * time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if bb.timeout != 2*time.Second {
		t.Errorf("timeout = %v, want 2s", bb.timeout)
	}

	if _, err := New(WithTimeout(0)); err == nil {
		t.Error("WithTimeout(0) expected error")
	}
}

func TestWithPort(t *testing.T) {
	tests := []struct {
		port    int
		wantErr bool
	}{
		{1, false},
		{9090, false},
		{65535, false},
		{0, true},
		{-1, true},
		{65536, true},
	}

	for _, tt := range tests {
		_, err := New(WithPort(tt.port))
		if (err != nil) != tt.wantErr {
			t.Errorf("WithPort(%d) error = %v, wantErr %v", tt.port, err, tt.wantErr)
		}
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(WithLogger(nil))
	if err == nil || !strings.Contains(err.Error(), "logger cannot be nil") {
		t.Errorf("New() error = %v, want 'logger cannot be nil'", err)
	}
}

func TestWithCommandAndTitle(t *testing.T) {
	bb, err := New(
		WithCommand("curl http://localhost:8080/api/votes"),
		WithTitle("Summer Vote"),
		WithDiscardStale(true),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if bb.command != "curl http://localhost:8080/api/votes" {
		t.Errorf("command = %q", bb.command)
	}
	if bb.title != "Summer Vote" {
		t.Errorf("title = %q", bb.title)
	}
	if !bb.discardStale {
		t.Error("discardStale = false, want true")
	}
}

func TestWithResultCallback_Nil(t *testing.T) {
	bb, err := New(WithResultCallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v, want nil (nil callback should be accepted)", err)
	}
	if len(bb.resultCallbacks) != 0 {
		t.Errorf("len(resultCallbacks) = %d, want 0", len(bb.resultCallbacks))
	}
}
