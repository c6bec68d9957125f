package domain

import "time"

// ConnectionID identifies one live transport connection.
// It is opaque to the core and unique for the connection's lifetime.
type ConnectionID string

// Session is the live association between a connection and a joined
// username. Exactly one Session exists per joined connection; a
// connection without one is unjoined and may not send messages.
type Session struct {
	ConnID   ConnectionID
	Username string
	JoinedAt time.Time
}
