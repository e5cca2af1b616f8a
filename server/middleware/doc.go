// Package middleware holds the Gin middleware of the HTTP transport.
package middleware
