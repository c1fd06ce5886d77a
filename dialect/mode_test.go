package dialect

import "testing"

func TestCoerceMode_Table(t *testing.T) {
	cases := []struct {
		name      string
		requested DbMode
		topo      Topology
		want      DbMode
	}{
		{"sqlite memory isolated, Best", Best, Topology{Product: SQLite, IsSQLiteInMemoryIsolated: true}, SingleConnection},
		{"sqlite memory isolated, SingleWriter", SingleWriter, Topology{Product: SQLite, IsSQLiteInMemoryIsolated: true}, SingleConnection},
		{"sqlite file, Standard", Standard, Topology{Product: SQLite, IsSQLiteSharedOrFile: true}, SingleWriter},
		{"sqlite file, KeepAlive", KeepAlive, Topology{Product: SQLite, IsSQLiteSharedOrFile: true}, SingleConnection},
		{"duckdb file, Best", Best, Topology{Product: DuckDB, IsDuckDBFile: true}, SingleWriter},
		{"duckdb file, KeepAlive warns to SingleWriter", KeepAlive, Topology{Product: DuckDB, IsDuckDBFile: true}, SingleWriter},
		{"duckdb file, SingleConnection", SingleConnection, Topology{Product: DuckDB, IsDuckDBFile: true}, SingleConnection},
		{"firebird embedded always pinned", Standard, Topology{Product: Firebird, IsEmbedded: true}, SingleConnection},
		{"localdb, Best", Best, Topology{Product: MSSQL, IsLocalDB: true}, KeepAlive},
		{"localdb, SingleWriter", SingleWriter, Topology{Product: MSSQL, IsLocalDB: true}, SingleWriter},
		{"full server, Best", Best, Topology{Product: Postgres}, Standard},
		{"full server, KeepAlive", KeepAlive, Topology{Product: Postgres}, KeepAlive},
		{"unknown product, Best", Best, Topology{Product: Unknown}, Standard},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CoerceMode(c.requested, c.topo)
			if got.Effective != c.want {
				t.Fatalf("CoerceMode(%v, %+v) = %v, want %v", c.requested, c.topo, got.Effective, c.want)
			}
		})
	}
}

func TestCoerceMode_ChangedFlag(t *testing.T) {
	r := CoerceMode(Standard, Topology{Product: DuckDB, IsDuckDBFile: true})
	if !r.Changed {
		t.Fatalf("expected Changed=true when effective (%v) differs from requested Standard", r.Effective)
	}
	if r.FromBest {
		t.Fatalf("expected FromBest=false for an explicit Standard request")
	}

	r2 := CoerceMode(Best, Topology{Product: DuckDB, IsDuckDBFile: true})
	if r2.Changed {
		t.Fatalf("a coercion away from Best should not set Changed (it's informational, not a warning)")
	}
	if !r2.FromBest {
		t.Fatalf("expected FromBest=true")
	}
}
