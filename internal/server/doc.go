// Package server provides the HTTP server for the BallotBoard chart page and API.
//
// This package is internal to BallotBoard and handles all HTTP concerns:
//
//   - Chart page: Serves the embedded HTML/CSS/JS chart at "/"
//   - REST API: JSON view of the table at "/api/rows"
//   - Server-Sent Events: Whole-table frames at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
