package dialect

import "regexp"

type duckdbDialect struct{}

func newDuckDB() Dialect { return duckdbDialect{} }

func (duckdbDialect) Product() Product { return DuckDB }

func (duckdbDialect) QuotePrefix() string                  { return `"` }
func (duckdbDialect) QuoteSuffix() string                  { return `"` }
func (duckdbDialect) CompositeIdentifierSeparator() string { return "." }

func (d duckdbDialect) WrapObjectName(name string) string {
	return wrapObjectName(d.QuotePrefix(), d.QuoteSuffix(), name)
}

func (duckdbDialect) ParameterMarker() string { return "$" }

func (duckdbDialect) MakeParameterName(name string) string { return "$" + name }

func (duckdbDialect) ParameterNameMaxLength() int { return 63 }
func (duckdbDialect) MaxParameterLimit() int      { return 65535 }
func (duckdbDialect) MaxOutputParameters() int    { return 0 }

func (duckdbDialect) SessionSettingsPreamble() string { return "" }

func (duckdbDialect) ReadOnlySessionSettingsPreamble() string {
	return "PRAGMA read_only=1;"
}

func (duckdbDialect) ReadOnlyConnectionStringKeys() map[string]string {
	return map[string]string{"access_mode": "READ_ONLY"}
}

func (duckdbDialect) Capabilities() Capabilities {
	return Capabilities{
		SupportsInsertReturning: true,
		SupportsSavepoints:      false,
		SupportsJSONTypes:       true,
		SupportsArrayTypes:      true,
		SupportsMerge:           false,
		SupportsWindowFunctions: true,
		SupportsCTE:             true,
		PrepareStatements:       true,
		SupportsNamedParameters: true,
		ExternalPooling:         false,
	}
}

func (duckdbDialect) PoolingKeys() (string, string, string, string) {
	return "", "", "", ""
}

func (duckdbDialect) GeneratedKeyPlan() GeneratedKeyPlan { return Returning }

func (duckdbDialect) ProcWrappingStyle() ProcWrappingStyle { return ProcUnsupported }

var duckdbVersionRe = regexp.MustCompile(`v?(\d+)\.(\d+)\.(\d+)`)

func (duckdbDialect) ParseVersion(raw string) DatabaseInfo {
	info := DatabaseInfo{ProductName: "DuckDB", ProductVersion: raw}
	m := duckdbVersionRe.FindStringSubmatch(raw)
	if len(m) == 0 {
		info.StandardLevel = StandardUnknown
		return info
	}
	info.StandardLevel = Standard2011
	return info
}

func (duckdbDialect) CoerceParameterValue(dbType string, value any) any {
	return value
}

// IsDuckDBInMemoryDataSource reports whether a DuckDB "Data Source" value refers
// to the transient in-memory database (no path, or the literal ":memory:").
func IsDuckDBInMemoryDataSource(dataSource string) bool {
	return dataSource == "" || dataSource == ":memory:"
}
