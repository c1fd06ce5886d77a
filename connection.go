package dbcore

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"github.com/pengdows/dbcore/lru"
)

// ConnectionKind expresses the caller's intent when acquiring a connection.
type ConnectionKind int

const (
	// Write requests a connection usable for INSERT/UPDATE/DELETE.
	Write ConnectionKind = iota
	// Read requests a connection that may be read-only configured.
	Read
)

// TrackedConnection wraps one *sql.Conn with the per-connection bookkeeping
// dbcore needs: the set of prepared-statement "shapes" already seen on this
// physical connection, and a sticky prepare_disabled flag flipped the first
// time Prepare fails (after which the connection falls back to unprepared
// execution for its remaining lifetime).
type TrackedConnection struct {
	conn           *sql.Conn
	shapes         *lru.Cache[struct{}]
	readOnly       bool
	prepareDisabled int32 // atomic bool
	pinned         bool
	mu             sync.Mutex
	closed         bool
}

const shapeCacheSize = 256

func newTrackedConnection(conn *sql.Conn, readOnly, pinned bool) *TrackedConnection {
	cache, _ := lru.New[struct{}](shapeCacheSize)
	return &TrackedConnection{
		conn:     conn,
		shapes:   cache,
		readOnly: readOnly,
		pinned:   pinned,
	}
}

// IsReadOnly reports whether this connection was configured with the
// dialect's read-only session preamble / connection-string knobs.
func (c *TrackedConnection) IsReadOnly() bool { return c.readOnly }

// IsPinned reports whether this connection is held long-lived by a
// connection strategy (KeepAlive / SingleWriter / SingleConnection), as
// opposed to an ephemeral Standard-mode connection.
func (c *TrackedConnection) IsPinned() bool { return c.pinned }

// PrepareDisabled reports whether a prior Prepare failure has flipped this
// connection to unprepared-only execution.
func (c *TrackedConnection) PrepareDisabled() bool {
	return atomic.LoadInt32(&c.prepareDisabled) != 0
}

// DisablePrepare sets the sticky prepare_disabled flag. It is never cleared
// by Reset — only a new physical connection clears it.
func (c *TrackedConnection) DisablePrepare() {
	atomic.StoreInt32(&c.prepareDisabled, 1)
}

// MarkShapePrepared records that statement shape s has been prepared on
// this connection. It returns added=true the first time a given shape is
// seen and added=false on every subsequent call for the same shape.
// evictedCount is 1 when adding s forced the shape cache to evict its
// least-recently-used entry, 0 otherwise (spec §4.3.1).
func (c *TrackedConnection) MarkShapePrepared(s string) (added bool, evictedCount int) {
	if _, ok := c.shapes.Get(s); ok {
		return false, 0
	}
	if c.shapes.Add(s, struct{}{}) {
		evictedCount = 1
	}
	return true, evictedCount
}

// Reset clears the prepared-shape set but leaves prepare_disabled
// untouched, matching the distinction the spec draws between "forget what
// we've prepared" and "stop trying to prepare at all".
func (c *TrackedConnection) Reset() {
	c.shapes.Purge()
}

// Raw returns the underlying *sql.Conn for use by SqlContainer execution.
func (c *TrackedConnection) Raw() *sql.Conn { return c.conn }

// Close closes the underlying physical connection. It is idempotent.
func (c *TrackedConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *TrackedConnection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.conn.BeginTx(ctx, opts)
}
