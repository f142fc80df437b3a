package query

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Reserved parameter names for the page window.
const (
	limitParam  = "pageLimit"
	offsetParam = "pageOffset"
)

// SQLBuilder records conditions and sort keys and renders them as a
// PostgreSQL statement. Named parameters are bound through
// pgx.StrictNamedArgs and returned as positional ($n) arguments.
type SQLBuilder struct {
	table      string
	alias      string
	columns    []string
	joins      []string
	conditions []Condition
	sorts      []SortKey
	limit      int
	offset     int
	paginated  bool
}

var _ Builder = (*SQLBuilder)(nil)

// NewSQLBuilder creates a builder selecting columns from table under alias.
func NewSQLBuilder(table, alias string, columns ...string) *SQLBuilder {
	return &SQLBuilder{
		table:   table,
		alias:   alias,
		columns: columns,
	}
}

// SetBaseCondition replaces every existing condition with predicate.
func (b *SQLBuilder) SetBaseCondition(predicate string) {
	b.conditions = []Condition{{Predicate: predicate}}
}

// AddCondition ANDs predicate with the existing conditions.
func (b *SQLBuilder) AddCondition(predicate string, params Params) {
	b.conditions = append(b.conditions, Condition{Predicate: predicate, Params: maps.Clone(params)})
}

// SetSortKey replaces the sort sequence with a single primary key.
func (b *SQLBuilder) SetSortKey(field string, dir Direction, nulls NullsPolicy) {
	b.sorts = []SortKey{{Field: field, Direction: dir, Nulls: nulls}}
}

// AddSecondarySortKey appends a tie-breaking sort key.
func (b *SQLBuilder) AddSecondarySortKey(field string, dir Direction) {
	b.sorts = append(b.sorts, SortKey{Field: field, Direction: dir})
}

// Join adds a raw JOIN clause, e.g. "INNER JOIN categories category ON ...".
func (b *SQLBuilder) Join(clause string) {
	b.joins = append(b.joins, clause)
}

// Paginate limits the rendered SELECT to a window of rows.
func (b *SQLBuilder) Paginate(limit, offset int) {
	b.limit = limit
	b.offset = offset
	b.paginated = true
}

// Conditions returns a copy of the recorded conditions in order.
func (b *SQLBuilder) Conditions() []Condition {
	out := make([]Condition, len(b.conditions))
	copy(out, b.conditions)
	return out
}

// Sorts returns a copy of the recorded sort keys in order.
func (b *SQLBuilder) Sorts() []SortKey {
	out := make([]SortKey, len(b.sorts))
	copy(out, b.sorts)
	return out
}

// Joins returns a copy of the recorded JOIN clauses.
func (b *SQLBuilder) Joins() []string {
	out := make([]string, len(b.joins))
	copy(out, b.joins)
	return out
}

// Build renders the SELECT statement and its positional arguments.
func (b *SQLBuilder) Build() (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))

	args, err := b.writeFromWhere(&sb)
	if err != nil {
		return "", nil, err
	}

	if len(b.sorts) > 0 {
		terms := make([]string, len(b.sorts))
		for i, s := range b.sorts {
			terms[i] = s.Field + " " + string(s.Direction)
			switch s.Nulls {
			case NullsFirst:
				terms[i] += " NULLS FIRST"
			case NullsLast:
				terms[i] += " NULLS LAST"
			}
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}

	if b.paginated {
		page := Params{limitParam: b.limit, offsetParam: b.offset}
		if err := mergeParams(args, page); err != nil {
			return "", nil, err
		}
		sb.WriteString(" LIMIT @" + limitParam + " OFFSET @" + offsetParam)
	}

	return bind(sb.String(), args)
}

// BuildCount renders a COUNT(*) statement over the same FROM/WHERE clauses.
// Sort keys and pagination are ignored.
func (b *SQLBuilder) BuildCount() (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*)")

	args, err := b.writeFromWhere(&sb)
	if err != nil {
		return "", nil, err
	}
	return bind(sb.String(), args)
}

func (b *SQLBuilder) writeFromWhere(sb *strings.Builder) (pgx.StrictNamedArgs, error) {
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	if b.alias != "" {
		sb.WriteString(" ")
		sb.WriteString(b.alias)
	}

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	args := pgx.StrictNamedArgs{}
	for i, c := range b.conditions {
		if err := mergeParams(args, c.Params); err != nil {
			return nil, err
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(c.Predicate)
	}

	return args, nil
}

// mergeParams adds params to args. A name may appear in several conditions
// only if every condition binds it to the same value.
func mergeParams(args pgx.StrictNamedArgs, params Params) error {
	for name, v := range params {
		if prev, ok := args[name]; ok && !reflect.DeepEqual(prev, v) {
			return fmt.Errorf("parameter %q bound to both %v and %v", name, prev, v)
		}
		args[name] = v
	}
	return nil
}

// bind rewrites @name placeholders to $n positions in order of first
// appearance. It fails when the statement names a parameter that is not
// bound, or a bound parameter is never referenced.
func bind(stmt string, args pgx.StrictNamedArgs) (string, []any, error) {
	sql, positional, err := args.RewriteQuery(context.Background(), nil, stmt, nil)
	if err != nil {
		return "", nil, fmt.Errorf("bind query parameters: %w", err)
	}
	return sql, positional, nil
}
