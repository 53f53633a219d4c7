// Package orchestrator runs the capture, inference and notification loop
package orchestrator

import "time"

// Loop configuration constants
const (
	// Delay before the first capture so the user can switch windows
	WarmUpDelay = 10 * time.Second

	// Cycle history kept in memory for the status server
	HistoryMaxEntries  = 100
	HistoryEventBuffer = 32
)
