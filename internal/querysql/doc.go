// Package querysql translates a query tree and its runtime parameters into a
// parameterized SQL WHERE fragment for SQLite.
//
// The translation shares leaf binding with the in-memory compiler, so a
// tree selects the same rows in the database as its Predicate selects in
// memory:
//
//   - an unbound leaf renders as "1 = 1" (vacuous truth)
//   - a multi leaf renders as a parenthesized OR of one comparison per value
//   - a range leaf renders one comparison per bound side
//   - ne also matches NULL columns, mirroring the null-property rule
//
// CRITICAL: values are never interpolated; every value is a ? placeholder.
// CRITICAL: Select always ends in ORDER BY rowid for deterministic results.
package querysql
