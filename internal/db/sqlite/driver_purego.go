//go:build !cgo_sqlite

package sqlite

// Pure Go driver, no C toolchain required.
import _ "modernc.org/sqlite"

// DriverName is the database/sql driver registered for this build.
const DriverName = "sqlite"
