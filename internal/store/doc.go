// Package store runs translated query tree filters against SQLite tables.
//
// The store is a thin, read-mostly layer: callers translate a tree with
// querysql and pass the resulting Where to Select. Rows come back as
// entity.Records keyed by column name, so the same tree can also be
// compiled in memory against them with a RecordResolver.
//
// CRITICAL: Select always orders by rowid so repeated runs return rows in
// the same order.
package store
