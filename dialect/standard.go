package dialect

// standardDialect is the conservative fallback used when a product can't
// be detected. It picks the lowest-common-denominator choices: ANSI
// double-quote identifiers, "?" positional parameters (the one marker
// every database/sql driver accepts literally), and the safest generated-key
// strategy that makes no assumptions about server capabilities.
type standardDialect struct{}

func newStandard() Dialect { return standardDialect{} }

func (standardDialect) Product() Product { return Unknown }

func (standardDialect) QuotePrefix() string                  { return `"` }
func (standardDialect) QuoteSuffix() string                  { return `"` }
func (standardDialect) CompositeIdentifierSeparator() string { return "." }

func (d standardDialect) WrapObjectName(name string) string {
	return wrapObjectName(d.QuotePrefix(), d.QuoteSuffix(), name)
}

func (standardDialect) ParameterMarker() string { return "?" }

func (standardDialect) MakeParameterName(name string) string { return "?" }

func (standardDialect) ParameterNameMaxLength() int { return 128 }
func (standardDialect) MaxParameterLimit() int      { return 255 }
func (standardDialect) MaxOutputParameters() int    { return 0 }

func (standardDialect) SessionSettingsPreamble() string         { return "" }
func (standardDialect) ReadOnlySessionSettingsPreamble() string { return "" }

func (standardDialect) ReadOnlyConnectionStringKeys() map[string]string { return nil }

func (standardDialect) Capabilities() Capabilities {
	return Capabilities{
		SupportsInsertReturning: false,
		SupportsSavepoints:      false,
		SupportsJSONTypes:       false,
		SupportsArrayTypes:      false,
		SupportsMerge:           false,
		SupportsWindowFunctions: false,
		SupportsCTE:             false,
		PrepareStatements:       false,
		SupportsNamedParameters: false,
		ExternalPooling:         false,
	}
}

func (standardDialect) PoolingKeys() (string, string, string, string) {
	return "", "", "", ""
}

func (standardDialect) GeneratedKeyPlan() GeneratedKeyPlan { return CorrelationToken }

func (standardDialect) ProcWrappingStyle() ProcWrappingStyle { return ProcUnsupported }

func (standardDialect) ParseVersion(raw string) DatabaseInfo {
	return DatabaseInfo{ProductName: "Unknown", ProductVersion: raw, StandardLevel: StandardUnknown}
}

func (standardDialect) CoerceParameterValue(dbType string, value any) any {
	return value
}
