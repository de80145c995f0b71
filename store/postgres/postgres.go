package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/aquilax/promptbox/store"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	updated TIMESTAMPTZ NOT NULL
)`

// Postgres is the store backend for hosted deployments.
type Postgres struct {
	db    *sqlx.DB
	quota int
}

func New(quota int) *Postgres {
	return &Postgres{quota: quota}
}

func (m *Postgres) Open(driver, dsn string) error {
	var err error
	m.db, err = sqlx.Open(driver, dsn)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(schema)
	return err
}

func (m *Postgres) Get(key string) ([]byte, error) {
	var value []byte
	err := m.db.Get(&value, "SELECT value FROM cache WHERE key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return value, err
}

func (m *Postgres) Set(key string, value []byte) error {
	if m.quota > 0 && len(value) > m.quota {
		return store.ErrQuotaExceeded
	}
	_, err := m.db.Exec(`INSERT INTO cache (key, value, updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated = $3`,
		key, value, time.Now())
	return err
}

func (m *Postgres) Delete(key string) error {
	_, err := m.db.Exec("DELETE FROM cache WHERE key = $1", key)
	return err
}

func (m *Postgres) Close() error {
	return m.db.Close()
}
