// Versioned column-add migrations for databases created by earlier
// builds. Tables that don't exist yet are skipped quietly; CREATE TABLE
// in store.go owns the current shape.
package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration defines a database schema migration.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists all schema migrations to apply.
var pendingMigrations = []Migration{
	// Attachment integrity column (added after the first release; rows
	// from older databases keep a NULL checksum until re-uploaded).
	{"attachments", "checksum", "TEXT"},
	// Customer column arrived after orders shipped name-only.
	{"orders", "customer", "TEXT NOT NULL DEFAULT ''"},
}

// runMigrations applies schema migrations for existing databases.
func (s *Store) runMigrations() error {
	applied := 0
	for _, m := range pendingMigrations {
		if !tableExists(s.db, m.Table) {
			continue
		}
		if columnExists(s.db, m.Table, m.Column) {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := s.db.Exec(query); err != nil {
			// Column may already exist in a different form.
			s.log.Warn("migration failed",
				zap.String("table", m.Table),
				zap.String("column", m.Column),
				zap.Error(err))
			continue
		}
		applied++
	}
	if applied > 0 {
		s.log.Info("schema migrations applied", zap.Int("count", applied))
	}
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(db *sql.DB, table string) bool {
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	return err == nil
}
