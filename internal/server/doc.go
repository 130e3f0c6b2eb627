// Package server runs the stub registry's HTTP transport.
//
// It owns server startup, signal handling, and graceful shutdown so the
// binary's main stays free of lifecycle plumbing.
package server
