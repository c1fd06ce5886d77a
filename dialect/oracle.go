package dialect

import "regexp"

type oracleDialect struct{}

func newOracle() Dialect { return oracleDialect{} }

func (oracleDialect) Product() Product { return Oracle }

func (oracleDialect) QuotePrefix() string                  { return `"` }
func (oracleDialect) QuoteSuffix() string                  { return `"` }
func (oracleDialect) CompositeIdentifierSeparator() string { return "." }

func (d oracleDialect) WrapObjectName(name string) string {
	return wrapObjectName(d.QuotePrefix(), d.QuoteSuffix(), name)
}

func (oracleDialect) ParameterMarker() string { return "$" }

func (oracleDialect) MakeParameterName(name string) string { return "$" + name }

func (oracleDialect) ParameterNameMaxLength() int { return 30 }
func (oracleDialect) MaxParameterLimit() int      { return 1000 }
func (oracleDialect) MaxOutputParameters() int    { return 1000 }

func (oracleDialect) SessionSettingsPreamble() string {
	return "ALTER SESSION SET NLS_DATE_FORMAT = 'YYYY-MM-DD';"
}

func (oracleDialect) ReadOnlySessionSettingsPreamble() string {
	return "ALTER SESSION SET NLS_DATE_FORMAT = 'YYYY-MM-DD';\nALTER SESSION SET READ ONLY;"
}

func (oracleDialect) ReadOnlyConnectionStringKeys() map[string]string { return nil }

func (oracleDialect) Capabilities() Capabilities {
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

func (oracleDialect) PoolingKeys() (string, string, string, string) {
	return "Pooling", "true", "Min Pool Size", "1"
}

func (oracleDialect) GeneratedKeyPlan() GeneratedKeyPlan { return PrefetchSequence }

func (oracleDialect) ProcWrappingStyle() ProcWrappingStyle { return ProcOracle }

var oracleVersionRe = regexp.MustCompile(`Release (\d+)\.(\d+)`)

func (oracleDialect) ParseVersion(raw string) DatabaseInfo {
	info := DatabaseInfo{ProductName: "Oracle", ProductVersion: raw}
	m := oracleVersionRe.FindStringSubmatch(raw)
	if len(m) == 0 {
		info.StandardLevel = StandardUnknown
		return info
	}
	major := atoiSafe(m[1])
	switch {
	case major >= 19:
		info.StandardLevel = Standard2016
	case major >= 12:
		info.StandardLevel = Standard2011
	default:
		info.StandardLevel = Standard2008
	}
	return info
}

func (oracleDialect) CoerceParameterValue(dbType string, value any) any {
	return value
}
