//go:build !cgo_sqlite

package kobo

import (
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const driverName = "sqlite"
