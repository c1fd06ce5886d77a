package dialect

import "regexp"

type mssqlDialect struct{}

func newMSSQL() Dialect { return mssqlDialect{} }

func (mssqlDialect) Product() Product { return MSSQL }

func (mssqlDialect) QuotePrefix() string                  { return "[" }
func (mssqlDialect) QuoteSuffix() string                  { return "]" }
func (mssqlDialect) CompositeIdentifierSeparator() string { return "." }

func (d mssqlDialect) WrapObjectName(name string) string {
	return wrapObjectName(d.QuotePrefix(), d.QuoteSuffix(), name)
}

func (mssqlDialect) ParameterMarker() string { return "@" }

func (mssqlDialect) MakeParameterName(name string) string { return "@" + name }

func (mssqlDialect) ParameterNameMaxLength() int { return 128 }
func (mssqlDialect) MaxParameterLimit() int      { return 2100 }
func (mssqlDialect) MaxOutputParameters() int    { return 2100 }

func (mssqlDialect) SessionSettingsPreamble() string { return "" }

func (mssqlDialect) ReadOnlySessionSettingsPreamble() string {
	return "SET TRANSACTION ISOLATION LEVEL READ COMMITTED;"
}

func (mssqlDialect) ReadOnlyConnectionStringKeys() map[string]string {
	return map[string]string{"ApplicationIntent": "ReadOnly"}
}

func (mssqlDialect) Capabilities() Capabilities {
	return Capabilities{
		SupportsInsertReturning: false,
		SupportsSavepoints:      true,
		SupportsJSONTypes:       false,
		SupportsArrayTypes:      false,
		SupportsMerge:           true,
		SupportsWindowFunctions: true,
		SupportsCTE:             true,
		PrepareStatements:       true,
		SupportsNamedParameters: true,
		ExternalPooling:         true,
	}
}

func (mssqlDialect) PoolingKeys() (string, string, string, string) {
	return "Pooling", "true", "Min Pool Size", "1"
}

func (mssqlDialect) GeneratedKeyPlan() GeneratedKeyPlan { return OutputInserted }

func (mssqlDialect) ProcWrappingStyle() ProcWrappingStyle { return ProcExec }

var mssqlVersionRe = regexp.MustCompile(`Microsoft SQL Server (\d+)`)

func (mssqlDialect) ParseVersion(raw string) DatabaseInfo {
	info := DatabaseInfo{ProductName: "Microsoft SQL Server", ProductVersion: raw}
	m := mssqlVersionRe.FindStringSubmatch(raw)
	if len(m) == 0 {
		info.StandardLevel = StandardUnknown
		return info
	}
	year := atoiSafe(m[1])
	switch {
	case year >= 2016:
		info.StandardLevel = Standard2016
	case year >= 2012:
		info.StandardLevel = Standard2011
	case year >= 2008:
		info.StandardLevel = Standard2008
	default:
		info.StandardLevel = Standard2003
	}
	return info
}

func (mssqlDialect) CoerceParameterValue(dbType string, value any) any {
	return value
}

// RCSIProbeQuery is implemented by dialects that can report READ_COMMITTED_SNAPSHOT
// and ALLOW_SNAPSHOT_ISOLATION state for the current database. Only SQL Server
// exposes this; callers type-assert for it after DetectDatabaseInfo.
type RCSIProbeQuery interface {
	RCSIProbeQuery() string
}

func (mssqlDialect) RCSIProbeQuery() string {
	return "SELECT is_read_committed_snapshot_on, snapshot_isolation_state FROM sys.databases WHERE database_id = DB_ID()"
}
