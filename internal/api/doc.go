// Package api is the HTTP client for the gateway: listing agents and
// sessions, sending messages, and decoding the SSE response stream.
package api
