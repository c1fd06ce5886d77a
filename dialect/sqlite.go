package dialect

import "regexp"

type sqliteDialect struct{}

func newSQLite() Dialect { return sqliteDialect{} }

func (sqliteDialect) Product() Product { return SQLite }

func (sqliteDialect) QuotePrefix() string                  { return `"` }
func (sqliteDialect) QuoteSuffix() string                  { return `"` }
func (sqliteDialect) CompositeIdentifierSeparator() string { return "." }

func (d sqliteDialect) WrapObjectName(name string) string {
	return wrapObjectName(d.QuotePrefix(), d.QuoteSuffix(), name)
}

func (sqliteDialect) ParameterMarker() string { return "@" }

func (sqliteDialect) MakeParameterName(name string) string { return "@" + name }

func (sqliteDialect) ParameterNameMaxLength() int { return 255 }
func (sqliteDialect) MaxParameterLimit() int      { return 999 }
func (sqliteDialect) MaxOutputParameters() int    { return 0 }

func (sqliteDialect) SessionSettingsPreamble() string { return "" }

func (sqliteDialect) ReadOnlySessionSettingsPreamble() string {
	return "PRAGMA query_only=1;"
}

// ReadOnlyConnectionStringKeys only applies to file-backed SQLite sources;
// in-memory (":memory:") sources have nothing to mark read-only at the
// connection-string level since they can't be reopened by a second handle.
// The context layer is responsible for skipping this for in-memory DSNs.
func (sqliteDialect) ReadOnlyConnectionStringKeys() map[string]string {
	return map[string]string{"mode": "ro"}
}

func (sqliteDialect) Capabilities() Capabilities {
	return Capabilities{
		SupportsInsertReturning: true,
		SupportsSavepoints:      true,
		SupportsJSONTypes:       true,
		SupportsArrayTypes:      false,
		SupportsMerge:           false,
		SupportsWindowFunctions: true,
		SupportsCTE:             true,
		PrepareStatements:       true,
		SupportsNamedParameters: true,
		ExternalPooling:         false,
	}
}

func (sqliteDialect) PoolingKeys() (string, string, string, string) {
	return "", "", "", ""
}

func (sqliteDialect) GeneratedKeyPlan() GeneratedKeyPlan { return SessionScopedFunction }

func (sqliteDialect) ProcWrappingStyle() ProcWrappingStyle { return ProcUnsupported }

var sqliteVersionRe = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

func (sqliteDialect) ParseVersion(raw string) DatabaseInfo {
	info := DatabaseInfo{ProductName: "SQLite", ProductVersion: raw}
	m := sqliteVersionRe.FindStringSubmatch(raw)
	if len(m) == 0 {
		info.StandardLevel = StandardUnknown
		return info
	}
	major := atoiSafe(m[1])
	if major >= 3 {
		info.StandardLevel = Standard2011
	} else {
		info.StandardLevel = Standard99
	}
	return info
}

func (sqliteDialect) CoerceParameterValue(dbType string, value any) any {
	return value
}

// IsInMemoryDataSource reports whether a SQLite "Data Source" value refers
// to an isolated in-memory database (":memory:" with no shared cache), as
// opposed to a shared-memory or file-backed source. Used by CoerceMode.
func IsInMemoryDataSource(dataSource string) bool {
	return dataSource == ":memory:" || dataSource == ""
}

// IsSharedMemoryDataSource reports whether a SQLite "Data Source" value
// uses a named shared-cache in-memory database (file:name?mode=memory&cache=shared).
func IsSharedMemoryDataSource(dataSource string) bool {
	return len(dataSource) > 5 && dataSource[:5] == "file:" &&
		(containsAll(dataSource, "mode=memory") && containsAll(dataSource, "cache=shared"))
}

func containsAll(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
