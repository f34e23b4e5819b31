package tarantool

import "log/slog"

// LogEvent is one loggable occurrence in a Connection's lifetime. Concrete
// events carry their own structured fields via LogAttrs.
type LogEvent interface {
	EventName() string
	Message() string
	LogLevel() slog.Level
	LogAttrs() []slog.Attr
}

// ConnectedEvent fires once Connect has dialed, handshaken, authenticated
// and (unless skipped) loaded the schema.
type ConnectedEvent struct {
	Version string
}

func (e ConnectedEvent) EventName() string    { return "connected" }
func (e ConnectedEvent) Message() string      { return "connected to Tarantool" }
func (e ConnectedEvent) LogLevel() slog.Level { return slog.LevelInfo }
func (e ConnectedEvent) LogAttrs() []slog.Attr {
	return []slog.Attr{slog.String("version", e.Version)}
}

// ConnectionClosedEvent fires once, when the connection is marked closed:
// by the dispatcher's reader, by a failed write, or by Close.
type ConnectionClosedEvent struct {
	Err error
}

func (e ConnectionClosedEvent) EventName() string    { return "connection_closed" }
func (e ConnectionClosedEvent) Message() string      { return "connection closed" }
func (e ConnectionClosedEvent) LogLevel() slog.Level { return slog.LevelError }
func (e ConnectionClosedEvent) LogAttrs() []slog.Attr {
	if e.Err == nil {
		return nil
	}
	return []slog.Attr{slog.String("error", e.Err.Error())}
}

// UnexpectedSyncEvent fires when the reader drops a reply that no pending
// request is waiting for: a late reply after a timeout or cancellation, or,
// with StrictSync off, a reply whose sync this connection never issued.
type UnexpectedSyncEvent struct {
	Sync uint64
}

func (e UnexpectedSyncEvent) EventName() string    { return "unexpected_sync" }
func (e UnexpectedSyncEvent) Message() string      { return "dropped reply with unrecognized sync" }
func (e UnexpectedSyncEvent) LogLevel() slog.Level { return slog.LevelWarn }
func (e UnexpectedSyncEvent) LogAttrs() []slog.Attr {
	return []slog.Attr{slog.Uint64("sync", e.Sync)}
}

// KeepAliveFailedEvent fires when a background PING fails while the
// connection is still open: no reply arrived within the ping's deadline of
// one keep-alive interval (a fatal error would already have closed the
// connection by the time the loop observes it).
type KeepAliveFailedEvent struct {
	Err error
}

func (e KeepAliveFailedEvent) EventName() string    { return "keepalive_failed" }
func (e KeepAliveFailedEvent) Message() string      { return "keep-alive ping failed" }
func (e KeepAliveFailedEvent) LogLevel() slog.Level { return slog.LevelWarn }
func (e KeepAliveFailedEvent) LogAttrs() []slog.Attr {
	if e.Err == nil {
		return nil
	}
	return []slog.Attr{slog.String("error", e.Err.Error())}
}
