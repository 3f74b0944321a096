// internal/adapters/sqlite/sqlite.go
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ammerola/lending-be/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
    id                TEXT PRIMARY KEY,
    name              TEXT    NOT NULL CHECK (trim(name) <> ''),
    name_key          TEXT    NOT NULL DEFAULT '',
    description       TEXT    NOT NULL DEFAULT '',
    quantity          INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    borrowed_quantity INTEGER NOT NULL DEFAULT 0 CHECK (borrowed_quantity >= 0),
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_movements (
    id             TEXT PRIMARY KEY,
    item_id        TEXT    NOT NULL,
    item_name      TEXT    NOT NULL,
    kind           TEXT    NOT NULL,
    delta          INTEGER NOT NULL,
    quantity_after INTEGER NOT NULL,
    borrowed_after INTEGER NOT NULL,
    occurred_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stock_movements_item ON stock_movements(item_id, occurred_at);
`

// Open opens a SQLite database and configures pragmas.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// An in-memory database is private to its connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}

// EnsureSchema creates the tables when they do not exist yet and upgrades
// files created before items carried name_key.
//
// name_key holds domain.NameKey(name). SQLite's lower() folds ASCII only, so
// the key is computed in Go and the unique index sits on the column.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	hasKey, err := hasColumn(db, "items", "name_key")
	if err != nil {
		return err
	}
	if !hasKey {
		if _, err := db.Exec(`ALTER TABLE items ADD COLUMN name_key TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("adding name_key: %w", err)
		}
	}
	if err := backfillNameKeys(db); err != nil {
		return err
	}

	stmts := []string{
		`DROP INDEX IF EXISTS idx_items_name_key`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_name_key_go ON items(name_key)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("indexing name_key: %w", err)
		}
	}
	return nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, fmt.Errorf("reading %s columns: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// backfillNameKeys fills name_key for rows written before the column existed
func backfillNameKeys(db *sql.DB) error {
	rows, err := db.Query(`SELECT id, name FROM items WHERE name_key = ''`)
	if err != nil {
		return fmt.Errorf("reading unkeyed items: %w", err)
	}
	keys := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return err
		}
		keys[id] = domain.NameKey(name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id, key := range keys {
		if _, err := db.Exec(`UPDATE items SET name_key = ? WHERE id = ?`, key, id); err != nil {
			return fmt.Errorf("backfilling name_key: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}
