// Package query defines the query-construction context that search criteria
// are compiled onto, and a PostgreSQL implementation of it.
package query

// Direction is the ordering direction of a sort key.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// NullsPolicy controls where NULL values are placed by a sort key.
type NullsPolicy int

// Null placement policies.
const (
	NullsDefault NullsPolicy = iota
	NullsFirst
	NullsLast
)

// Params binds named predicate parameters ("@name") to values.
type Params map[string]any

// Builder is a mutable query-construction context. Predicates are boolean
// SQL expressions that reference their parameters as "@name". A name bound
// by more than one condition must carry the same value in each.
type Builder interface {
	// SetBaseCondition replaces every existing condition with predicate.
	SetBaseCondition(predicate string)

	// AddCondition ANDs predicate with the existing conditions.
	AddCondition(predicate string, params Params)

	// SetSortKey replaces the sort sequence with a single primary key.
	SetSortKey(field string, dir Direction, nulls NullsPolicy)

	// AddSecondarySortKey appends a tie-breaking sort key.
	AddSecondarySortKey(field string, dir Direction)
}

// Condition is a recorded predicate with its parameter bindings.
type Condition struct {
	Predicate string
	Params    Params
}

// SortKey is a recorded ORDER BY term.
type SortKey struct {
	Field     string
	Direction Direction
	Nulls     NullsPolicy
}
