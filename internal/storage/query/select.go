package query

import (
	"fmt"
	"strings"
)

type clause struct {
	expr string // contains one ? per arg
	args []any
}

// Select accumulates predicates and renders them once, so placeholder numbering
// and argument order are decided in a single pass by Build.
type Select struct {
	dialect Dialect
	base    string
	where   []clause
	groupBy string
	having  []clause
	orderBy string
	limit   *int
}

func NewSelect(d Dialect, base string) *Select {
	return &Select{dialect: d, base: strings.TrimSpace(base)}
}

// Where adds a row-level predicate, AND-joined with the others.
func (s *Select) Where(expr string, args ...any) *Select {
	s.where = append(s.where, clause{expr: expr, args: args})
	return s
}

func (s *Select) GroupBy(expr string) *Select {
	s.groupBy = expr
	return s
}

// Having adds a post-aggregation predicate. It is only rendered with a GROUP BY.
func (s *Select) Having(expr string, args ...any) *Select {
	s.having = append(s.having, clause{expr: expr, args: args})
	return s
}

func (s *Select) OrderBy(expr string) *Select {
	s.orderBy = expr
	return s
}

func (s *Select) Limit(n int) *Select {
	s.limit = &n
	return s
}

// Build renders the statement and its arguments in placeholder order.
func (s *Select) Build() (string, []any, error) {
	if len(s.having) > 0 && s.groupBy == "" {
		return "", nil, fmt.Errorf("having without group by")
	}

	var (
		b    strings.Builder
		args []any
		n    int
	)
	b.WriteString(s.base)

	write := func(keyword string, cs []clause) error {
		for i, c := range cs {
			if got := strings.Count(c.expr, "?"); got != len(c.args) {
				return fmt.Errorf("clause %q: %d placeholders for %d args", c.expr, got, len(c.args))
			}
			if i == 0 {
				b.WriteString("\n" + keyword + " ")
			} else {
				b.WriteString(" AND ")
			}
			var expr string
			expr, n = s.dialect.rebindFrom(c.expr, n)
			b.WriteString(expr)
			args = append(args, c.args...)
		}
		return nil
	}

	if err := write("WHERE", s.where); err != nil {
		return "", nil, err
	}
	if s.groupBy != "" {
		b.WriteString("\nGROUP BY " + s.groupBy)
	}
	if err := write("HAVING", s.having); err != nil {
		return "", nil, err
	}
	if s.orderBy != "" {
		b.WriteString("\nORDER BY " + s.orderBy)
	}
	if s.limit != nil {
		n++
		b.WriteString("\nLIMIT " + s.dialect.Placeholder(n))
		args = append(args, *s.limit)
	}
	return b.String(), args, nil
}
