// Package persistence provides SQLite-based storage for saved chart configurations.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/astrowheel/internal/chart"
)

// ErrNotFound is returned when a chart or metadata key does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for chart storage.
type DB struct {
	conn *sqlx.DB
}

// Record is a stored chart.
type Record struct {
	ID         string       `db:"id" json:"id"`
	Name       string       `db:"name" json:"name"`
	System     string       `db:"system" json:"system"`
	ConfigJSON string       `db:"config_json" json:"-"`
	CreatedAt  int64        `db:"created_at" json:"created_at"`
	UpdatedAt  int64        `db:"updated_at" json:"updated_at"`
	Config     chart.Config `db:"-" json:"config"`
}

// Summary is a stored chart without its configuration, as listed.
type Summary struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	System    string `db:"system" json:"system"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
	UpdatedAt int64  `db:"updated_at" json:"updated_at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("chart store opened", "path", path)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS charts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		system TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chart_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_charts_updated ON charts(updated_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveChart stores cfg under a fresh ID.
func (db *DB) SaveChart(name string, cfg chart.Config) (Record, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return Record{}, fmt.Errorf("encode config: %w", err)
	}
	now := time.Now().Unix()
	rec := Record{
		ID:         uuid.NewString(),
		Name:       name,
		System:     cfg.Houses.System,
		ConfigJSON: string(raw),
		CreatedAt:  now,
		UpdatedAt:  now,
		Config:     cfg,
	}

	_, err = db.conn.NamedExec(`INSERT INTO charts
		(id, name, system, config_json, created_at, updated_at)
		VALUES (:id, :name, :system, :config_json, :created_at, :updated_at)`, rec)
	if err != nil {
		return Record{}, fmt.Errorf("insert chart: %w", err)
	}
	slog.Info("chart saved", "id", rec.ID, "name", name)
	return rec, nil
}

// UpdateChart replaces the name and configuration of an existing chart.
func (db *DB) UpdateChart(id, name string, cfg chart.Config) (Record, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return Record{}, fmt.Errorf("encode config: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE charts SET name = ?, system = ?, config_json = ?, updated_at = ?
		WHERE id = ?`, name, cfg.Houses.System, string(raw), time.Now().Unix(), id)
	if err != nil {
		return Record{}, fmt.Errorf("update chart %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Record{}, fmt.Errorf("chart %s: %w", id, ErrNotFound)
	}
	rec, err := getChart(tx, id)
	if err != nil {
		return Record{}, err
	}
	return rec, tx.Commit()
}

// GetChart loads one chart and decodes its configuration.
func (db *DB) GetChart(id string) (Record, error) {
	return getChart(db.conn, id)
}

func getChart(q sqlx.Queryer, id string) (Record, error) {
	var rec Record
	err := sqlx.Get(q, &rec, "SELECT id, name, system, config_json, created_at, updated_at FROM charts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("chart %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &rec.Config); err != nil {
		return Record{}, fmt.Errorf("decode chart %s: %w", id, err)
	}
	return rec, nil
}

// ListCharts returns up to limit charts, most recently updated first.
func (db *DB) ListCharts(limit int) ([]Summary, error) {
	charts := []Summary{}
	err := db.conn.Select(&charts,
		"SELECT id, name, system, created_at, updated_at FROM charts ORDER BY updated_at DESC, id LIMIT ?",
		limit,
	)
	return charts, err
}

// CountCharts returns the number of stored charts.
func (db *DB) CountCharts() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM charts")
	return n, err
}

// DeleteChart removes a chart.
func (db *DB) DeleteChart(id string) error {
	res, err := db.conn.Exec("DELETE FROM charts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("chart %s: %w", id, ErrNotFound)
	}
	slog.Info("chart deleted", "id", id)
	return nil
}

// SaveMeta stores a key-value pair in store metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO chart_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM chart_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %s: %w", key, ErrNotFound)
	}
	return value, err
}
