package dialect

// atoiSafe parses a run of leading decimal digits, returning 0 for a
// non-numeric or empty string instead of an error. Version strings are
// best-effort parsed; a malformed version number should degrade to
// StandardUnknown, not panic or propagate a parse error.
func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
