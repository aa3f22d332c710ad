//go:build cgo_sqlite

package sqlite

// CGO driver, selected with: CGO_ENABLED=1 go build -tags cgo_sqlite ./...
import _ "github.com/mattn/go-sqlite3"

// DriverName is the database/sql driver registered for this build.
const DriverName = "sqlite3"
