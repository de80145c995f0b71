package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/aquilax/promptbox/store"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// The modernc driver registers as "sqlite", which sqlx does not know.
func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const schema = `CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated TIMESTAMP NOT NULL
)`

// SQLite is the default persistent store backend.
type SQLite struct {
	db    *sqlx.DB
	quota int
}

func New(quota int) *SQLite {
	return &SQLite{quota: quota}
}

func (m *SQLite) Open(driver, dsn string) error {
	var err error
	m.db, err = sqlx.Open(driver, dsn)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(schema)
	return err
}

func (m *SQLite) Get(key string) ([]byte, error) {
	var value []byte
	err := m.db.Get(&value, "SELECT value FROM cache WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return value, err
}

func (m *SQLite) Set(key string, value []byte) error {
	if m.quota > 0 && len(value) > m.quota {
		return store.ErrQuotaExceeded
	}
	_, err := m.db.NamedExec(`INSERT INTO cache (key, value, updated)
		VALUES (:key, :value, :updated)
		ON CONFLICT(key) DO UPDATE SET value = :value, updated = :updated`,
		map[string]interface{}{
			"key":     key,
			"value":   value,
			"updated": time.Now(),
		})
	return err
}

func (m *SQLite) Delete(key string) error {
	_, err := m.db.Exec("DELETE FROM cache WHERE key = ?", key)
	return err
}

func (m *SQLite) Close() error {
	return m.db.Close()
}
