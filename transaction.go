package dbcore

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/pengdows/dbcore/dialect"
)

// TransactionContext exclusively owns one TrackedConnection for its
// lifetime. It must Commit or Rollback exactly once before disposal;
// disposing a never-committed transaction implies Rollback.
type TransactionContext struct {
	ctx        *DatabaseContext
	conn       *TrackedConnection
	tx         *sql.Tx
	dialect    dialect.Dialect
	readOnly   bool
	kind       ConnectionKind
	lock       locker
	lockHeld   bool
	done       int32 // atomic: 0=open, 1=committed, 2=rolled back
	savepoints int
}

// BeginTransaction opens a transaction for the given intent. isolation may
// be sql.LevelDefault to use the dialect's default. readOnly additionally
// applies the dialect's read-only session settings before first use.
func (dc *DatabaseContext) BeginTransaction(ctx context.Context, isolation sql.IsolationLevel, kind ConnectionKind, readOnly bool) (*TransactionContext, error) {
	if dc.IsDisposed() {
		return nil, &ObjectDisposedError{Object: "DatabaseContext"}
	}
	if dc.readWrite == ReadOnly && kind == Write {
		return nil, &NotSupportedError{Message: "writes are not supported: context opened in ReadOnly mode"}
	}
	if readOnly && !isReadCompatibleIsolation(isolation) {
		return nil, &InvalidOperationError{Message: fmt.Sprintf("isolation level %v is not compatible with a read-only transaction", isolation)}
	}

	lock := dc.strategy.GetLock()
	if kind == Write {
		if err := lock.Lock(ctx); err != nil {
			return nil, err
		}
	}

	shared := kind == Write
	conn, err := dc.strategy.GetConnection(ctx, kind, shared)
	if err != nil {
		if kind == Write {
			lock.Unlock()
		}
		return nil, err
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: isolation, ReadOnly: readOnly})
	if err != nil {
		if kind == Write {
			lock.Unlock()
		}
		return nil, &ConnectionFailedError{Phase: "BeginTx", Role: roleName(kind), Err: err}
	}

	if readOnly {
		if preamble := dc.dialect.ReadOnlySessionSettingsPreamble(); preamble != "" {
			if _, err := tx.ExecContext(ctx, preamble); err != nil {
				_ = tx.Rollback()
				if kind == Write {
					lock.Unlock()
				}
				return nil, &ConnectionFailedError{Phase: "ReadOnlyPreamble", Role: roleName(kind), Err: err}
			}
		}
	}

	return &TransactionContext{
		ctx:      dc,
		conn:     conn,
		tx:       tx,
		dialect:  dc.dialect,
		readOnly: readOnly,
		kind:     kind,
		lock:     lock,
		lockHeld: kind == Write,
	}, nil
}

// isReadCompatibleIsolation reports whether level can be combined with a
// read-only transaction. Every isolation level database/sql exposes merely
// restricts visibility of concurrent writes, so none conflict with a
// read-only transaction; this exists as the single place that decision is
// made, so a future dialect-specific exception has one spot to land.
func isReadCompatibleIsolation(level sql.IsolationLevel) bool {
	return true
}

func roleName(kind ConnectionKind) string {
	if kind == Write {
		return "ReadWrite"
	}
	return "ReadOnly"
}

// Exec runs a non-query statement on the transaction's connection. A
// read-only transaction rejects a statement whose leading keyword
// isWriteStatement recognises (INSERT, UPDATE, DELETE, MERGE or DDL) before
// the provider ever sees it.
func (t *TransactionContext) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if t.readOnly && isWriteStatement(query) {
		return nil, &InvalidOperationError{Message: "write on read-only transaction"}
	}
	t.ctx.beforeExecute(len(args))
	start := nowFunc()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.ctx.afterExecute(start, res, err)
	return res, err
}

// Query runs a row-returning statement on the transaction's connection.
func (t *TransactionContext) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	t.ctx.beforeExecute(len(args))
	start := nowFunc()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	t.ctx.afterExecute(start, nil, err)
	return rows, err
}

// Commit commits the transaction. Double-commit fails InvalidOperation.
func (t *TransactionContext) Commit() error {
	if !atomic.CompareAndSwapInt32(&t.done, 0, 1) {
		return &InvalidOperationError{Message: "transaction already committed or rolled back"}
	}
	err := t.tx.Commit()
	t.release()
	return err
}

// Rollback rolls back the transaction. Double-rollback fails
// InvalidOperation. Rolling back an already-committed transaction also
// fails InvalidOperation.
func (t *TransactionContext) Rollback() error {
	if !atomic.CompareAndSwapInt32(&t.done, 0, 2) {
		return &InvalidOperationError{Message: "transaction already committed or rolled back"}
	}
	err := t.tx.Rollback()
	t.release()
	return err
}

// Dispose rolls back the transaction if it was never committed or rolled
// back. It is safe to call after Commit/Rollback.
func (t *TransactionContext) Dispose() error {
	if atomic.LoadInt32(&t.done) == 0 {
		return t.Rollback()
	}
	return nil
}

func (t *TransactionContext) release() {
	if t.lockHeld {
		t.lock.Unlock()
		t.lockHeld = false
	}
	t.ctx.strategy.CloseAndDispose(t.conn)
}

// Savepoint emits the dialect-specific savepoint form. Dialects without
// savepoint support fail NotSupported.
func (t *TransactionContext) Savepoint(ctx context.Context, name string) error {
	if !t.dialect.Capabilities().SupportsSavepoints {
		return &NotSupportedError{Message: "savepoints are not supported by this dialect"}
	}
	_, err := t.tx.ExecContext(ctx, savepointSQL(t.dialect.Product(), name))
	return err
}

// RollbackToSavepoint emits the dialect-specific rollback-to-savepoint form.
func (t *TransactionContext) RollbackToSavepoint(ctx context.Context, name string) error {
	if !t.dialect.Capabilities().SupportsSavepoints {
		return &NotSupportedError{Message: "savepoints are not supported by this dialect"}
	}
	_, err := t.tx.ExecContext(ctx, rollbackToSavepointSQL(t.dialect.Product(), name))
	return err
}

func savepointSQL(p dialect.Product, name string) string {
	if p == dialect.MSSQL {
		return "SAVE TRANSACTION " + name
	}
	return "SAVEPOINT " + name
}

func rollbackToSavepointSQL(p dialect.Product, name string) string {
	if p == dialect.MSSQL {
		return "ROLLBACK TRANSACTION " + name
	}
	return "ROLLBACK TO SAVEPOINT " + name
}
