// internal/game/conn.go
package game

// Conn is the capability a Room holds for a connected player. It is a
// non-owning reference: the transport layer (the websocket handler) owns the
// real connection and its lifetime, the Room only nulls its reference on
// disconnect. Send must never block room mutation; implementations queue or
// drop.
type Conn interface {
	// Send queues a serialized frame for delivery. Best-effort.
	Send(data []byte)
	// Close asks the transport to tear the connection down (used by kick).
	Close()
}
