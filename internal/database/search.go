package database

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching term anywhere.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// containsAny ORs a case-insensitive substring match of term over columns.
// LOWER(..) LIKE is used instead of ILIKE so the same query runs on SQLite,
// where lower() is the Unicode-aware one registered by SQLiteDriver and so
// folds the column the way strings.ToLower folds the pattern.
func containsAny(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	pattern := containsPattern(term)
	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	where := "(" + strings.Join(parts, " OR ") + ")"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(where, args...)
	}
}
