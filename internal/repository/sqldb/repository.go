package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/repository"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	latestID = "latest"
)

type dialect struct {
	createTable string
	upsert      string
	selectOne   string
}

var dialects = map[string]dialect{
	DriverPostgres: {
		createTable: `CREATE TABLE IF NOT EXISTS dashboard_snapshots (
			id VARCHAR(64) PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		upsert: `
		INSERT INTO dashboard_snapshots (id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		selectOne: `SELECT payload FROM dashboard_snapshots WHERE id = $1`,
	},
	DriverMySQL: {
		createTable: `CREATE TABLE IF NOT EXISTS dashboard_snapshots (
			id VARCHAR(64) PRIMARY KEY,
			payload LONGTEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		upsert: `
		INSERT INTO dashboard_snapshots (id, payload, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			payload = VALUES(payload),
			updated_at = VALUES(updated_at)`,
		selectOne: `SELECT payload FROM dashboard_snapshots WHERE id = ?`,
	},
}

// SnapshotRepository stores the latest snapshot as a single row.
type SnapshotRepository struct {
	db      *sql.DB
	dialect dialect
}

func NewSnapshotRepository(db *sql.DB, driver string) (*SnapshotRepository, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &SnapshotRepository{db: db, dialect: d}, nil
}

// Open connects with the given driver and applies pool settings.
func Open(driver, dsn string) (*sql.DB, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, snapshot *model.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.upsert, latestID, string(payload), snapshot.LastUpdated.UTC()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Load(ctx context.Context) (*model.Snapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, r.dialect.selectOne, latestID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snapshot := &model.Snapshot{}
	if err := json.Unmarshal([]byte(payload), snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// InitializeDatabase creates the necessary tables
func (r *SnapshotRepository) InitializeDatabase(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}
