// Package catalog persists merged movie records and their quality entries.
//
// The store is the single place where concurrent arrivals for one movie key
// are reconciled. Upsert performs find-or-create, add-if-absent and
// set-if-absent in one transaction so duplicate deliveries fold into the same
// row, and write-once fields (group id, poster reference) keep their first
// value. SQLite (modernc.org/sqlite) is the default backend; PostgreSQL is
// reached through the pgx stdlib driver using the same SQL with positional
// placeholders rebound.
package catalog
