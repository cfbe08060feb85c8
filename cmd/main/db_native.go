//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// initDB opens the session database with the pure-Go sqlite driver, the
// default when the cgo_sqlite build tag is absent.
func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite", dataSource)
}
