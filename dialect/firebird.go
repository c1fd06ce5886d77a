package dialect

import "regexp"

type firebirdDialect struct{}

func newFirebird() Dialect { return firebirdDialect{} }

func (firebirdDialect) Product() Product { return Firebird }

func (firebirdDialect) QuotePrefix() string                  { return `"` }
func (firebirdDialect) QuoteSuffix() string                  { return `"` }
func (firebirdDialect) CompositeIdentifierSeparator() string { return "." }

func (d firebirdDialect) WrapObjectName(name string) string {
	return wrapObjectName(d.QuotePrefix(), d.QuoteSuffix(), name)
}

func (firebirdDialect) ParameterMarker() string { return "?" }

// Firebird's wire protocol uses positional "?" markers; MakeParameterName
// returns the bare "?" whatever name it is given, and the parameter's name
// is kept only in the parameter bag.
func (firebirdDialect) MakeParameterName(name string) string { return "?" }

func (firebirdDialect) ParameterNameMaxLength() int { return 63 }
func (firebirdDialect) MaxParameterLimit() int      { return 1500 }
func (firebirdDialect) MaxOutputParameters() int    { return 0 }

func (firebirdDialect) SessionSettingsPreamble() string { return "" }

func (firebirdDialect) ReadOnlySessionSettingsPreamble() string {
	return "SET TRANSACTION READ ONLY;"
}

func (firebirdDialect) ReadOnlyConnectionStringKeys() map[string]string { return nil }

func (firebirdDialect) Capabilities() Capabilities {
	return Capabilities{
		SupportsInsertReturning: true,
		SupportsSavepoints:      true,
		SupportsJSONTypes:       false,
		SupportsArrayTypes:      true,
		SupportsMerge:           true,
		SupportsWindowFunctions: true,
		SupportsCTE:             true,
		PrepareStatements:       true,
		SupportsNamedParameters: false,
		ExternalPooling:         false,
	}
}

func (firebirdDialect) PoolingKeys() (string, string, string, string) {
	return "", "", "", ""
}

func (firebirdDialect) GeneratedKeyPlan() GeneratedKeyPlan { return Returning }

func (firebirdDialect) ProcWrappingStyle() ProcWrappingStyle { return ProcExecuteProcedure }

// firebirdLegacyRe matches the legacy "LI-V3.0.7" banner style and
// firebirdFriendlyRe the friendlier "Firebird 3.0" style some builds report.
var (
	firebirdLegacyRe  = regexp.MustCompile(`[A-Z]{2}-V(\d+)\.(\d+)\.(\d+)`)
	firebirdFriendlyRe = regexp.MustCompile(`Firebird (\d+)\.(\d+)`)
)

func (firebirdDialect) ParseVersion(raw string) DatabaseInfo {
	info := DatabaseInfo{ProductName: "Firebird", ProductVersion: raw}
	if m := firebirdFriendlyRe.FindStringSubmatch(raw); len(m) > 0 {
		info.StandardLevel = levelForFirebirdMajor(atoiSafe(m[1]))
		return info
	}
	if m := firebirdLegacyRe.FindStringSubmatch(raw); len(m) > 0 {
		info.StandardLevel = levelForFirebirdMajor(atoiSafe(m[1]))
		return info
	}
	info.StandardLevel = StandardUnknown
	return info
}

func levelForFirebirdMajor(major int) SqlStandardLevel {
	switch {
	case major >= 4:
		return Standard2011
	case major >= 3:
		return Standard2008
	default:
		return Standard2003
	}
}

// CoerceParameterValue implements Firebird's documented provider coercions:
// Boolean columns bind as Int16 (0/1) and Guid columns bind as Binary,
// since the Firebird wire protocol has no native boolean or UUID type.
func (firebirdDialect) CoerceParameterValue(dbType string, value any) any {
	switch dbType {
	case "Boolean":
		if b, ok := value.(bool); ok {
			if b {
				return int16(1)
			}
			return int16(0)
		}
	case "Guid":
		if g, ok := value.(interface{ MarshalBinary() ([]byte, error) }); ok {
			if b, err := g.MarshalBinary(); err == nil {
				return b
			}
		}
	}
	return value
}
