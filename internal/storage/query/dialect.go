// Package query renders parameterized SQL for the supported dialects.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

type Dialect int

const (
	Postgres Dialect = iota // $1, $2, ...
	MySQL                   // ?
)

func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return 0, fmt.Errorf("unsupported sql driver %q", driver)
}

func (d Dialect) String() string {
	if d == MySQL {
		return "mysql"
	}
	return "postgres"
}

// Placeholder renders the n-th (1-based) positional parameter.
func (d Dialect) Placeholder(n int) string {
	if d == MySQL {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// CaseSensitiveLike is the LIKE operator that compares bytes exactly. MySQL's
// default collations fold case, so it needs LIKE BINARY.
func (d Dialect) CaseSensitiveLike() string {
	if d == MySQL {
		return "LIKE BINARY"
	}
	return "LIKE"
}

// Rebind rewrites each ? marker in q into the dialect's placeholders, in order.
func (d Dialect) Rebind(q string) string {
	q, _ = d.rebindFrom(q, 0)
	return q
}

// rebindFrom numbers placeholders starting after n and returns the last number used.
func (d Dialect) rebindFrom(q string, n int) (string, int) {
	if d == MySQL || !strings.Contains(q, "?") {
		return q, n + strings.Count(q, "?")
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String(), n
}
