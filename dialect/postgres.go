package dialect

import (
	"regexp"
)

type postgresDialect struct{}

func newPostgres() Dialect { return postgresDialect{} }

func (postgresDialect) Product() Product { return Postgres }

func (postgresDialect) QuotePrefix() string                  { return `"` }
func (postgresDialect) QuoteSuffix() string                  { return `"` }
func (postgresDialect) CompositeIdentifierSeparator() string { return "." }

func (d postgresDialect) WrapObjectName(name string) string {
	return wrapObjectName(d.QuotePrefix(), d.QuoteSuffix(), name)
}

func (postgresDialect) ParameterMarker() string { return ":" }

func (postgresDialect) MakeParameterName(name string) string {
	return ":" + name
}

func (postgresDialect) ParameterNameMaxLength() int { return 63 }
func (postgresDialect) MaxParameterLimit() int      { return 65535 }
func (postgresDialect) MaxOutputParameters() int    { return 0 }

func (postgresDialect) SessionSettingsPreamble() string { return "" }

func (postgresDialect) ReadOnlySessionSettingsPreamble() string {
	return "SET default_transaction_read_only=on;"
}

func (postgresDialect) ReadOnlyConnectionStringKeys() map[string]string {
	return map[string]string{"options": "-c default_transaction_read_only=on"}
}

func (postgresDialect) Capabilities() Capabilities {
	return Capabilities{
		SupportsInsertReturning: true,
		SupportsSavepoints:      true,
		SupportsJSONTypes:       true,
		SupportsArrayTypes:      true,
		SupportsMerge:           true,
		SupportsWindowFunctions: true,
		SupportsCTE:             true,
		PrepareStatements:       true,
		SupportsNamedParameters: true,
		ExternalPooling:         true,
	}
}

func (postgresDialect) PoolingKeys() (string, string, string, string) {
	return "Pooling", "true", "MinPoolSize", "1"
}

func (postgresDialect) GeneratedKeyPlan() GeneratedKeyPlan { return Returning }

func (postgresDialect) ProcWrappingStyle() ProcWrappingStyle { return ProcPostgreSQL }

var postgresVersionRe = regexp.MustCompile(`PostgreSQL (\d+)\.?(\d+)?`)

func (postgresDialect) ParseVersion(raw string) DatabaseInfo {
	info := DatabaseInfo{ProductName: "PostgreSQL", ProductVersion: raw}
	m := postgresVersionRe.FindStringSubmatch(raw)
	if len(m) == 0 {
		info.StandardLevel = StandardUnknown
		return info
	}
	major := atoiSafe(m[1])
	switch {
	case major >= 15:
		info.StandardLevel = Standard2016
	case major >= 11:
		info.StandardLevel = Standard2011
	case major >= 9:
		info.StandardLevel = Standard2008
	default:
		info.StandardLevel = Standard2003
	}
	return info
}

func (postgresDialect) CoerceParameterValue(dbType string, value any) any {
	return value
}
