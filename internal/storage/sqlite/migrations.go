package sqlite

import "database/sql"

// schema stores every entity as a JSON document keyed by (collection, id).
// Ledger rows (budget entries, debt payments) are documents too, with their
// parent id copied out so they can be listed per parent.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    parent_id TEXT,
    body TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(collection, parent_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
