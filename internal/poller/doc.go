// Package poller fetches vote tallies over HTTP and renders them on an interval.
//
// This package is internal to BallotBoard. It owns the polling timer, the HTTP
// client, response decoding and the single policy point that decides what
// happens to a failed poll (log it and leave the display alone).
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with timeout and size limits
//   - [VotePoller]: Ticks on an interval and renders each snapshot to a [Surface]
//   - [Result]: Outcome of one poll, success or tagged failure
//   - [PollError]: Failure tagged with an [ErrorKind]
//
// Users of the ballotboard library should not need to interact with this
// package directly. Configuration is done through the main ballotboard package.
package poller
