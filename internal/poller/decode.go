package poller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jpalmerr/ballotboard/internal/tally"
)

// DefaultVotesPath is the field holding the votes array in a votes response.
const DefaultVotesPath = "votes"

// DecodeVotes parses a votes response body.
//
// The votes array is located by path using dot notation to navigate nested
// objects ("votes", "data.votes"). Each element must be a two-element array
// of a string label and a non-negative integer count:
//
//	{"votes": [["Yes", 3], ["No", 1]]}
//
// An empty array is a valid, empty snapshot.
func DecodeVotes(body []byte, path string) ([]tally.Vote, error) {
	if path == "" {
		path = DefaultVotesPath
	}

	data, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}

	value, ok := lookupJSONPath(data, strings.Split(path, "."))
	if !ok {
		return nil, fmt.Errorf("field %q not found", path)
	}

	items, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("field %q is not an array", path)
	}

	votes := make([]tally.Vote, len(items))
	for i, item := range items {
		pair, ok := item.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%s[%d]: expected [label, count] pair", path, i)
		}

		label, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: label must be a string", path, i)
		}

		count, err := parseCount(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}

		votes[i] = tally.Vote{Label: label, Count: count}
	}

	return votes, nil
}

// DecodeAddress parses a system response body and returns its address field.
func DecodeAddress(body []byte) (string, error) {
	data, err := decodeJSON(body)
	if err != nil {
		return "", err
	}

	value, ok := lookupJSONPath(data, []string{"address"})
	if !ok {
		return "", errors.New(`field "address" not found`)
	}
	address, ok := value.(string)
	if !ok {
		return "", errors.New(`field "address" is not a string`)
	}
	return address, nil
}

func decodeJSON(body []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON: trailing data after top-level value")
	}
	return data, nil
}

// lookupJSONPath walks a JSON structure using dot notation parts.
func lookupJSONPath(data interface{}, parts []string) (interface{}, bool) {
	current := data

	for _, part := range parts {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// parseCount accepts non-negative integers, including integral floats like 3.0.
func parseCount(v interface{}) (uint64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.New("count must be a number")
	}

	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u, nil
	}

	f, err := n.Float64()
	if err != nil || f < 0 || f != math.Trunc(f) || f >= 1<<64 {
		return 0, fmt.Errorf("count %s is not a non-negative integer", n.String())
	}
	return uint64(f), nil
}
