package poller

import (
	"context"
	"strings"
	"time"
)

// addressPlaceholder is the host the command template is written against.
const addressPlaceholder = "localhost"

// ResolveAddress fetches the system endpoint and returns the address it reports.
//
// Failures are returned as a *PollError with the same kinds a votes poll uses.
func (c *Client) ResolveAddress(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (string, error) {
	resp := c.Fetch(ctx, url, headers, timeout)
	if resp.Error != nil {
		return "", networkError(resp.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp.StatusCode, resp.Status)
	}

	address, err := DecodeAddress(resp.Body)
	if err != nil {
		return "", decodeError(err)
	}
	return address, nil
}

// SubstituteAddress replaces the first "localhost" in command with address.
//
// An empty address leaves the command unchanged.
func SubstituteAddress(command, address string) string {
	if address == "" {
		return command
	}
	return strings.Replace(command, addressPlaceholder, address, 1)
}
