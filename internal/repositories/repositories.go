package repositories

import "database/sql"

// nullString maps "" to SQL NULL so optional source fields are stored as null
// when absent.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
