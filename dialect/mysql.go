package dialect

import "regexp"

// mysqlDialect also serves MariaDB: the wire-level SQL surface this
// package cares about (quoting, markers, LAST_INSERT_ID()) is identical.
type mysqlDialect struct{}

func newMySQL() Dialect { return mysqlDialect{} }

func (mysqlDialect) Product() Product { return MySQL }

func (mysqlDialect) QuotePrefix() string                  { return "`" }
func (mysqlDialect) QuoteSuffix() string                  { return "`" }
func (mysqlDialect) CompositeIdentifierSeparator() string { return "." }

func (d mysqlDialect) WrapObjectName(name string) string {
	return wrapObjectName(d.QuotePrefix(), d.QuoteSuffix(), name)
}

// MySQL's standard `?` marker doesn't support named parameters;
// MakeParameterName returns the bare "?" whatever name it is given, and the
// parameter's name is kept only in the parameter bag, not in the rendered SQL.
func (mysqlDialect) ParameterMarker() string { return "?" }

func (mysqlDialect) MakeParameterName(name string) string { return "?" }

func (mysqlDialect) ParameterNameMaxLength() int { return 64 }
func (mysqlDialect) MaxParameterLimit() int      { return 65535 }
func (mysqlDialect) MaxOutputParameters() int    { return 0 }

func (mysqlDialect) SessionSettingsPreamble() string { return "" }

func (mysqlDialect) ReadOnlySessionSettingsPreamble() string {
	return "SET SESSION TRANSACTION READ ONLY;"
}

func (mysqlDialect) ReadOnlyConnectionStringKeys() map[string]string { return nil }

func (mysqlDialect) Capabilities() Capabilities {
	return Capabilities{
		SupportsInsertReturning: false,
		SupportsSavepoints:      true,
		SupportsJSONTypes:       true,
		SupportsArrayTypes:      false,
		SupportsMerge:           false,
		SupportsWindowFunctions: true,
		SupportsCTE:             true,
		PrepareStatements:       true,
		SupportsNamedParameters: false,
		ExternalPooling:         true,
	}
}

func (mysqlDialect) PoolingKeys() (string, string, string, string) {
	return "", "", "", ""
}

func (mysqlDialect) GeneratedKeyPlan() GeneratedKeyPlan { return SessionScopedFunction }

func (mysqlDialect) ProcWrappingStyle() ProcWrappingStyle { return ProcCall }

var mysqlVersionRe = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

func (mysqlDialect) ParseVersion(raw string) DatabaseInfo {
	info := DatabaseInfo{ProductName: "MySQL", ProductVersion: raw}
	m := mysqlVersionRe.FindStringSubmatch(raw)
	if len(m) == 0 {
		info.StandardLevel = StandardUnknown
		return info
	}
	major := atoiSafe(m[1])
	switch {
	case major >= 8:
		info.StandardLevel = Standard2016
	case major >= 5:
		info.StandardLevel = Standard2011
	default:
		info.StandardLevel = Standard2003
	}
	return info
}

func (mysqlDialect) CoerceParameterValue(dbType string, value any) any {
	return value
}
