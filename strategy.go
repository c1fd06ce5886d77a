package dbcore

import (
	"context"
)

// connectionStrategy implements one of the four DbMode connection-
// acquisition policies (spec §4.1.2). The DatabaseContext holds exactly one
// strategy, selected by dialect.CoerceMode at construction time.
type connectionStrategy interface {
	// GetConnection acquires a connection for the given intent. shared
	// requests the pinned connection where the strategy has one and the
	// kind allows it (a write request under SingleWriter always gets the
	// pinned writer; a read request under SingleWriter gets an ephemeral
	// RO connection unless shared is requested AND the strategy has
	// nothing better, which cannot happen for SingleWriter reads).
	GetConnection(ctx context.Context, kind ConnectionKind, shared bool) (*TrackedConnection, error)

	// CloseAndDispose releases a connection obtained from GetConnection.
	// It is a no-op for pinned connections still owned by the strategy.
	CloseAndDispose(c *TrackedConnection) error

	// GetLock returns the locker that must be held around any write path
	// touching a pinned connection. Standard returns a no-op locker.
	GetLock() locker

	// Dispose releases any long-lived connection the strategy owns.
	Dispose() error
}

// connOpener abstracts *sql.DB down to what a strategy needs: opening a
// fresh tracked connection for a given intent. DatabaseContext implements
// this by applying the dialect's session preamble (and, for reads, its
// read-only connection-string knobs) before handing back the connection.
type connOpener interface {
	openConnection(ctx context.Context, kind ConnectionKind) (*TrackedConnection, error)
}

// standardStrategy returns a fresh connection on every call; the caller is
// responsible for closing it.
type standardStrategy struct {
	opener connOpener
}

func newStandardStrategy(opener connOpener) *standardStrategy {
	return &standardStrategy{opener: opener}
}

func (s *standardStrategy) GetConnection(ctx context.Context, kind ConnectionKind, shared bool) (*TrackedConnection, error) {
	return s.opener.openConnection(ctx, kind)
}

func (s *standardStrategy) CloseAndDispose(c *TrackedConnection) error {
	if c == nil {
		return nil
	}
	return c.Close()
}

func (s *standardStrategy) GetLock() locker { return noopLocker{} }

func (s *standardStrategy) Dispose() error { return nil }

// keepAliveStrategy holds one warm pinned connection to keep the pool (or a
// LocalDB process) alive; reads and writes otherwise behave like Standard.
type keepAliveStrategy struct {
	opener connOpener
	pinned *TrackedConnection
	lock   *weightedLocker
}

func newKeepAliveStrategy(opener connOpener, pinned *TrackedConnection) *keepAliveStrategy {
	return &keepAliveStrategy{opener: opener, pinned: pinned, lock: newWeightedLocker()}
}

// GetConnection always opens an ephemeral connection, ignoring shared: the
// pinned connection exists only to keep the pool (or LocalDB process)
// warm in the background, never to serve caller traffic. Reads and writes
// behave exactly like Standard (spec §4.1.2).
func (s *keepAliveStrategy) GetConnection(ctx context.Context, kind ConnectionKind, shared bool) (*TrackedConnection, error) {
	return s.opener.openConnection(ctx, kind)
}

func (s *keepAliveStrategy) CloseAndDispose(c *TrackedConnection) error {
	if c == nil || c == s.pinned {
		return nil
	}
	return c.Close()
}

func (s *keepAliveStrategy) GetLock() locker { return s.lock }

func (s *keepAliveStrategy) Dispose() error {
	if s.pinned == nil {
		return nil
	}
	return s.pinned.Close()
}

// singleWriterStrategy pins one writer connection that serves all write
// requests; reads are always ephemeral, whether or not shared is requested.
type singleWriterStrategy struct {
	opener connOpener
	writer *TrackedConnection
	lock   *weightedLocker
}

func newSingleWriterStrategy(opener connOpener, writer *TrackedConnection) *singleWriterStrategy {
	return &singleWriterStrategy{opener: opener, writer: writer, lock: newWeightedLocker()}
}

func (s *singleWriterStrategy) GetConnection(ctx context.Context, kind ConnectionKind, shared bool) (*TrackedConnection, error) {
	if kind == Write {
		return s.writer, nil
	}
	// Reads are always ephemeral under SingleWriter, even if shared was
	// requested: the pinned writer is reserved for write traffic.
	return s.opener.openConnection(ctx, Read)
}

func (s *singleWriterStrategy) CloseAndDispose(c *TrackedConnection) error {
	if c == nil || c == s.writer {
		return nil
	}
	return c.Close()
}

func (s *singleWriterStrategy) GetLock() locker { return s.lock }

func (s *singleWriterStrategy) Dispose() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// singleConnectionStrategy serves every read and write from one pinned
// connection. CloseAndDispose is always a no-op.
type singleConnectionStrategy struct {
	conn *TrackedConnection
	lock *weightedLocker
}

func newSingleConnectionStrategy(conn *TrackedConnection) *singleConnectionStrategy {
	return &singleConnectionStrategy{conn: conn, lock: newWeightedLocker()}
}

func (s *singleConnectionStrategy) GetConnection(ctx context.Context, kind ConnectionKind, shared bool) (*TrackedConnection, error) {
	return s.conn, nil
}

func (s *singleConnectionStrategy) CloseAndDispose(c *TrackedConnection) error { return nil }

func (s *singleConnectionStrategy) GetLock() locker { return s.lock }

func (s *singleConnectionStrategy) Dispose() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
