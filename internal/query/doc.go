// Package query provides a small composable predicate representation for the
// state cache's enumeration and count queries.
//
// Predicates are an expression tree rather than concatenated SQL strings, so
// operator precedence is fixed by construction: Compile emits fully
// parenthesized, parameterized WHERE fragments. The historical hazard this
// removes is the unscoped form
//
//	parenthandle = ? AND shared = 1 OR shared = 4
//
// which leaks rows from outside the requested parent. The equivalent tree
//
//	And{Eq{parenthandle}, Or{Eq{shared,1}, Eq{shared,4}}}
//
// compiles to "((parenthandle = ?) AND ((shared = ?) OR (shared = ?)))".
//
// The interface is sealed via a marker method; only types in this package
// implement Predicate, which keeps Compile's type switch exhaustive.
package query
