// Package mcp serves the tool dispatcher over the Model Context Protocol
// stdio transport.
//
// Messages are newline-delimited JSON-RPC 2.0. The server handles
// initialize, notifications/initialized, ping, tools/list and tools/call.
// Requests are processed in order on one goroutine, so at most one
// transcription job runs at a time. Stdout belongs to the protocol; logs go
// to stderr.
package mcp
