package query

// Predicate is a filter condition over a single table.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// an exhaustive type switch in Compile.
//
// Predicate types:
//   - Eq: column = value
//   - And: all predicates must hold
//   - Or: at least one predicate must hold
//   - IsNull: column IS NULL
//   - NotNull: column IS NOT NULL
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Eq compares a column against a literal value.
//
// The value is always emitted as a bind parameter, never interpolated.
type Eq struct {
	Column string
	Value  any
}

func (Eq) predicateNode() {}

// And holds when every child predicate holds.
// An empty And is vacuously true.
type And struct {
	Preds []Predicate
}

func (And) predicateNode() {}

// Or holds when at least one child predicate holds.
// An empty Or is vacuously true, mirroring And.
type Or struct {
	Preds []Predicate
}

func (Or) predicateNode() {}

// IsNull holds when the column is SQL NULL.
//
// The nodes table uses NULL fingerprints to mark folders, so this predicate
// is the folder-side discriminator.
type IsNull struct {
	Column string
}

func (IsNull) predicateNode() {}

// NotNull holds when the column is not SQL NULL.
type NotNull struct {
	Column string
}

func (NotNull) predicateNode() {}
