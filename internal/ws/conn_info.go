package ws

import "time"

// ConnInfo captures per-connection identity and tracing context,
// attached at admission time.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
