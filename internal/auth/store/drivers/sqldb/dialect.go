package sqldb

import (
	"strconv"
	"strings"
)

// RebindDollar rewrites "?" placeholders to "$1", "$2", ... for postgres.
// Queries in this package never contain a literal "?".
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
