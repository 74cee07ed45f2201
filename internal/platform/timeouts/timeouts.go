// Package timeouts defines shared timeout constants used across commands and
// stores.
package timeouts

import "time"

// Shutdown limits how long a command waits for telemetry to flush on exit.
const Shutdown = 5 * time.Second

// StoreBusy limits how long a SQLite shared store waits on a lock held by
// another execution context before failing the read or write.
const StoreBusy = 5 * time.Second
