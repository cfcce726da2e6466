package database

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriver is go-sqlite3 with lower() replaced by a Unicode-aware
// version. The built-in only folds ASCII, so "Électronique" would never
// match a search for "électronique" the way it does on postgres.
const SQLiteDriver = "sqlite3_unicode"

func init() {
	sql.Register(SQLiteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

func unicodeLower(v interface{}) interface{} {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// OpenSQLite returns a gorm dialector for dsn on SQLiteDriver.
func OpenSQLite(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriver, DSN: dsn})
}
