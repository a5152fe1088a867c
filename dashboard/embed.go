// Package dashboard provides the embedded chart page for BallotBoard.
//
// The page is compiled into the binary and served by the server package at
// "/". It renders one table row per ballot option and keeps itself current
// through the /api/rows and /api/sse endpoints.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the chart page.
//
//	assets/
//	  index.html    - chart table, command element, inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
