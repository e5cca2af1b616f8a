// Package version reports build information.
//
// Set the version at build time:
//
//	go build -ldflags "-X github.com/kbukum/video-transcribe-mcp/version.Version=1.0.0" ./cmd/video-transcribe-mcp
package version
