package models

import "time"

// SessionStatus represents the current state of a rendering session
type SessionStatus string

const (
	StatusActive   SessionStatus = "ACTIVE"
	StatusReleased SessionStatus = "RELEASED"
)

// Viewport is the fixed window size every session renders with
type Viewport struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// Session describes one isolated browsing context on the shared engine
type Session struct {
	ID        string        `json:"id"`
	Status    SessionStatus `json:"status"`
	Viewport  Viewport      `json:"viewport"`
	Locale    string        `json:"locale"`
	Timezone  string        `json:"timezone"`
	UserAgent string        `json:"userAgent"`
	StartedAt time.Time     `json:"startedAt"`
}
