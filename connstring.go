package dbcore

import (
	"net/url"
	"strings"

	"github.com/pengdows/dbcore/dialect"
)

// deriveReadOnlyConnectionString builds an effective read-only data source
// from rw when no dedicated ReadOnlyConnectionString was configured. It
// layers the dialect's ReadOnlyConnectionStringKeys on top of rw's existing
// key/value pairs, preferring rw's own values where both are present.
//
// The grammar dbcore uses for connection strings is the familiar
// semicolon-separated "Key=Value;Key2=Value2" ADO-style form the teacher's
// dialects already assume (see dialect.ReadOnlyConnectionStringKeys); it is
// parsed and re-serialized here rather than treated as an opaque blob, so a
// dialect can both read existing keys and inject its own.
func deriveReadOnlyConnectionString(rw string, d dialect.Dialect) string {
	keys := d.ReadOnlyConnectionStringKeys()
	if len(keys) == 0 || isInMemoryDataSource(d.Product(), rw) {
		return rw
	}

	pairs := parseConnectionString(rw)
	for k, v := range keys {
		if _, exists := findKeyCaseInsensitive(pairs, k); !exists {
			pairs = append(pairs, kv{k, v})
		}
	}
	return serializeConnectionString(pairs)
}

type kv struct {
	Key   string
	Value string
}

func parseConnectionString(s string) []kv {
	var out []kv
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, "=")
		if idx < 0 {
			continue
		}
		out = append(out, kv{
			Key:   strings.TrimSpace(part[:idx]),
			Value: strings.TrimSpace(part[idx+1:]),
		})
	}
	return out
}

func serializeConnectionString(pairs []kv) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, ";")
}

func findKeyCaseInsensitive(pairs []kv, key string) (kv, bool) {
	for _, p := range pairs {
		if strings.EqualFold(p.Key, key) {
			return p, true
		}
	}
	return kv{}, false
}

// equivalentDataSources reports whether two connection strings refer to the
// same logical server/database once credentials (User Id/Password/Pwd/Uid)
// are stripped, so the RW and derived RO strings can be compared without a
// password difference producing a false "different data source" result.
func equivalentDataSources(a, b string) bool {
	return stripCredentials(a) == stripCredentials(b)
}

var credentialKeys = map[string]bool{
	"user id":  true,
	"userid":   true,
	"password": true,
	"pwd":      true,
	"uid":      true,
}

func stripCredentials(s string) string {
	pairs := parseConnectionString(s)
	kept := pairs[:0]
	for _, p := range pairs {
		if credentialKeys[strings.ToLower(p.Key)] {
			continue
		}
		kept = append(kept, p)
	}
	return serializeConnectionString(kept)
}

// appendReadOnlyApplicationName suffixes an existing Application Name key
// (if present) with ":ro", so RO connections are distinguishable in server
// session listings without requiring a second application identity to be
// configured up front.
func appendReadOnlyApplicationName(dsn string) string {
	pairs := parseConnectionString(dsn)
	for i, p := range pairs {
		if strings.EqualFold(p.Key, "Application Name") || strings.EqualFold(p.Key, "ApplicationName") {
			if !strings.HasSuffix(p.Value, ":ro") {
				pairs[i].Value = p.Value + ":ro"
			}
			return serializeConnectionString(pairs)
		}
	}
	return dsn
}

// isInMemoryDataSource reports whether dataSource refers to a transient
// single-process resource for the given product, used to decide whether
// read-only connection-string keys (which assume a durable file) apply.
func isInMemoryDataSource(product dialect.Product, dataSource string) bool {
	switch product {
	case dialect.SQLite:
		return dialect.IsInMemoryDataSource(dataSource)
	case dialect.DuckDB:
		return dialect.IsDuckDBInMemoryDataSource(dataSource)
	default:
		return false
	}
}

// dataSourceNameOnly extracts a best-effort host/file identifier from a
// connection string, for use in log lines that should not include
// credentials. It is deliberately forgiving: unparsed input is returned as
// a redacted placeholder rather than causing an error.
func dataSourceNameOnly(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Host != "" {
		return u.Host
	}
	pairs := parseConnectionString(dsn)
	for _, p := range pairs {
		if strings.EqualFold(p.Key, "Data Source") || strings.EqualFold(p.Key, "Server") || strings.EqualFold(p.Key, "Host") {
			return p.Value
		}
	}
	return "<unparsed>"
}
