package dialect

// DbMode selects the connection-acquisition policy a DatabaseContext uses.
// See spec §4.1.1 for the full coercion table this drives.
type DbMode int

const (
	Best DbMode = iota
	Standard
	KeepAlive
	SingleWriter
	SingleConnection
)

func (m DbMode) String() string {
	switch m {
	case Best:
		return "Best"
	case Standard:
		return "Standard"
	case KeepAlive:
		return "KeepAlive"
	case SingleWriter:
		return "SingleWriter"
	default:
		return "SingleConnection"
	}
}

// Topology carries the facts CoerceMode needs beyond the product and the
// requested mode: whether the data source is an in-process/local resource
// and whether it's fully embedded (no server process at all).
type Topology struct {
	Product                Product
	IsLocalDB              bool // SQL Server LocalDB
	IsEmbedded              bool // Firebird embedded
	IsSQLiteInMemoryIsolated bool
	IsSQLiteSharedOrFile     bool
	IsDuckDBFile             bool
}

// CoercionResult reports the effective mode plus whether/how it differs
// from the caller's request, for the warn-vs-info logging split in spec
// §4.1.1.
type CoercionResult struct {
	Effective DbMode
	Changed   bool
	// FromBest is true when the caller asked for Best (and therefore any
	// resulting coercion is logged as information, not a warning).
	FromBest bool
}

// CoerceMode implements the product/topology coercion table from spec
// §4.1.1 exactly.
func CoerceMode(requested DbMode, topo Topology) CoercionResult {
	effective := coerceModeTable(requested, topo)
	return CoercionResult{
		Effective: effective,
		Changed:   effective != requested && requested != Best,
		FromBest:  requested == Best,
	}
}

func coerceModeTable(requested DbMode, topo Topology) DbMode {
	switch {
	case topo.Product == SQLite && topo.IsSQLiteInMemoryIsolated:
		return SingleConnection

	case topo.Product == SQLite && topo.IsSQLiteSharedOrFile:
		switch requested {
		case KeepAlive, SingleConnection:
			return SingleConnection
		default:
			return SingleWriter
		}

	case topo.Product == DuckDB && topo.IsDuckDBFile:
		switch requested {
		case SingleConnection:
			return SingleConnection
		default:
			// KeepAlive has no meaning for DuckDB's single-writer-process
			// model; it is coerced to SingleWriter with a warning.
			return SingleWriter
		}

	case topo.Product == Firebird && topo.IsEmbedded:
		return SingleConnection

	case topo.IsLocalDB:
		switch requested {
		case SingleWriter:
			return SingleWriter
		case SingleConnection:
			return SingleConnection
		default:
			return KeepAlive
		}

	default: // full server products and Unknown
		switch requested {
		case KeepAlive:
			return KeepAlive
		case SingleWriter:
			return SingleWriter
		case SingleConnection:
			return SingleConnection
		default:
			return Standard
		}
	}
}
