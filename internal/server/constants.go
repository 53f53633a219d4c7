// Package server exposes the capture loop state over HTTP and WebSocket
package server

import "time"

// Server configuration constants
const (
	// History limits for /api/history
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100

	// Per-connection write deadline for broadcast frames
	WriteTimeout = 5 * time.Second

	// Graceful shutdown budget once the loop has stopped
	ShutdownTimeout = 5 * time.Second
)
