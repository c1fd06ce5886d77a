package dialect

import "testing"

func TestWrapObjectName_SchemaDotTable(t *testing.T) {
	cases := []struct {
		product Product
		want    string
	}{
		{Postgres, `"schema"."table"`},
		{MySQL, "`schema`.`table`"},
		{MSSQL, "[schema].[table]"},
		{Oracle, `"schema"."table"`},
		{SQLite, `"schema"."table"`},
		{Firebird, `"schema"."table"`},
		{DuckDB, `"schema"."table"`},
	}
	for _, c := range cases {
		d := ForProduct(c.product)
		got := d.WrapObjectName("schema.table")
		if got != c.want {
			t.Errorf("%s.WrapObjectName = %q, want %q", c.product, got, c.want)
		}
	}
}

func TestMakeParameterName_StartsWithMarker(t *testing.T) {
	cases := []struct {
		product Product
		want    string
	}{
		{Postgres, ":w0"},
		{MSSQL, "@w0"},
		{Oracle, "$w0"},
		{SQLite, "@w0"},
		{DuckDB, "$w0"},
		{MySQL, "?"},    // no named parameters
		{Firebird, "?"}, // no named parameters
	}
	for _, c := range cases {
		d := ForProduct(c.product)
		got := d.MakeParameterName("w0")
		if got != c.want {
			t.Errorf("%s.MakeParameterName(w0) = %q, want %q", c.product, got, c.want)
		}
		if d.Capabilities().SupportsNamedParameters {
			if got[0:1] != d.ParameterMarker() {
				t.Errorf("%s: expected marker-prefixed name, got %q", c.product, got)
			}
		} else if got != "?" {
			t.Errorf("%s: expected bare '?' when named parameters unsupported, got %q", c.product, got)
		}
	}
}

// S3: SQL Server uses OutputInserted.
func TestGeneratedKeyPlan_SQLServer(t *testing.T) {
	if ForProduct(MSSQL).GeneratedKeyPlan() != OutputInserted {
		t.Fatalf("expected OutputInserted for SQL Server")
	}
}

// S4: MySQL uses SessionScopedFunction (LAST_INSERT_ID()).
func TestGeneratedKeyPlan_MySQL(t *testing.T) {
	if ForProduct(MySQL).GeneratedKeyPlan() != SessionScopedFunction {
		t.Fatalf("expected SessionScopedFunction for MySQL")
	}
}

// S5: Oracle's read-only transaction preamble.
func TestOracleReadOnlyPreamble(t *testing.T) {
	want := "ALTER SESSION SET NLS_DATE_FORMAT = 'YYYY-MM-DD';\nALTER SESSION SET READ ONLY;"
	got := ForProduct(Oracle).ReadOnlySessionSettingsPreamble()
	if got != want {
		t.Fatalf("ReadOnlySessionSettingsPreamble = %q, want %q", got, want)
	}
}

func TestFirebirdVersionParsing(t *testing.T) {
	d := ForProduct(Firebird)
	legacy := d.ParseVersion("LI-V3.0.7 Firebird 3.0")
	if legacy.StandardLevel != Standard2008 {
		t.Fatalf("expected Standard2008 for Firebird 3.0, got %v", legacy.StandardLevel)
	}
	friendly := d.ParseVersion("Firebird 4.0")
	if friendly.StandardLevel != Standard2011 {
		t.Fatalf("expected Standard2011 for Firebird 4.0, got %v", friendly.StandardLevel)
	}
}

func TestFirebirdParameterCoercion(t *testing.T) {
	d := ForProduct(Firebird)
	if got := d.CoerceParameterValue("Boolean", true); got != int16(1) {
		t.Fatalf("expected Boolean true -> int16(1), got %#v", got)
	}
	if got := d.CoerceParameterValue("Boolean", false); got != int16(0) {
		t.Fatalf("expected Boolean false -> int16(0), got %#v", got)
	}
}

func TestForDriverName(t *testing.T) {
	cases := map[string]Product{
		"postgres":   Postgres,
		"mysql":      MySQL,
		"sqlserver":  MSSQL,
		"go-ora":     Oracle,
		"sqlite3":    SQLite,
		"firebirdsql": Firebird,
		"duckdb":     DuckDB,
		"": Unknown,
	}
	for driver, want := range cases {
		if got := ForDriverName(driver); got != want {
			t.Errorf("ForDriverName(%q) = %v, want %v", driver, got, want)
		}
	}
}
