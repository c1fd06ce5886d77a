package dbcore

import (
	"database/sql"
	"strings"
	"time"
)

// beforeExecute records the parameter count against the high-water mark.
// It does not check the count against the dialect's cap and cannot fail;
// TooManyParametersError is raised while building the WHERE clause, not
// here.
func (dc *DatabaseContext) beforeExecute(paramCount int) {
	dc.metrics.ObserveParameterCount(paramCount)
}

// afterExecute records a completed command's duration, row counts, and
// failure/timeout status, then fans out a metrics snapshot.
func (dc *DatabaseContext) afterExecute(start time.Time, res sql.Result, err error) {
	d := nowFunc().Sub(start)
	failed := err != nil
	timedOut := err != nil && isTimeoutError(err)

	var rowsAffected int64
	if res != nil {
		if n, rerr := res.RowsAffected(); rerr == nil {
			rowsAffected = n
		}
	}
	dc.metrics.RecordCommand(d, rowsAffected, 0, failed, timedOut)
}

// afterRead records rows read by a reader, separate from afterExecute
// because reads are counted as they're consumed rather than at query time.
func (dc *DatabaseContext) afterRead(rowsRead int64) {
	dc.metrics.RecordCommand(0, 0, rowsRead, false, false)
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(strings.ToLower(msg), "timeout") || strings.Contains(strings.ToLower(msg), "context deadline exceeded")
}

// isWriteStatement reports whether the leading keyword of query is a
// data-modifying statement. It's a best-effort lexical check: the read-only
// write guard only needs to catch INSERT/UPDATE/DELETE/DDL attempts before
// they reach the provider, and the query text is always dbcore-generated,
// never arbitrary user SQL, so a leading-keyword check is sufficient.
func isWriteStatement(query string) bool {
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)
	for _, kw := range []string{"INSERT", "UPDATE", "DELETE", "MERGE", "CREATE", "DROP", "ALTER", "TRUNCATE"} {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}
