// Package logger provides structured logging on top of zerolog.
//
// Logs go to stderr unless configured otherwise: under the stdio transport
// stdout carries protocol frames and nothing else may be written there.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("downloader")
//	log.Info("probe finished", logger.Fields("url", u))
package logger
