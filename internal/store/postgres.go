package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"eventpass/internal/model"
)

const (
	colUsers      = "users"
	colEvents     = "events"
	colAttendance = "attendance"
)

// Postgres keeps each collection as ordered jsonb documents in a single
// table, preserving the store's whole-collection read/write granularity.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects with sane pool defaults and ensures the schema.
func NewPostgres(connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", model.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	p := &Postgres{db: db}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", model.ErrStoreUnavailable, err)
	}
	if err := p.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresWithDB wraps an existing connection; used by tests.
func NewPostgresWithDB(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			collection TEXT  NOT NULL,
			pos        INT   NOT NULL,
			doc        JSONB NOT NULL,
			PRIMARY KEY (collection, pos)
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) LoadUsers(ctx context.Context) ([]model.User, error) {
	return loadDocs[model.User](ctx, p.db, colUsers)
}

func (p *Postgres) ReplaceUsers(ctx context.Context, users []model.User) error {
	return replaceDocs(ctx, p.db, colUsers, users)
}

func (p *Postgres) LoadEvents(ctx context.Context) ([]model.Event, error) {
	return loadDocs[model.Event](ctx, p.db, colEvents)
}

func (p *Postgres) ReplaceEvents(ctx context.Context, events []model.Event) error {
	return replaceDocs(ctx, p.db, colEvents, events)
}

func (p *Postgres) LoadAttendance(ctx context.Context) ([]model.AttendanceRecord, error) {
	return loadDocs[model.AttendanceRecord](ctx, p.db, colAttendance)
}

func (p *Postgres) ReplaceAttendance(ctx context.Context, records []model.AttendanceRecord) error {
	return replaceDocs(ctx, p.db, colAttendance, records)
}

func loadDocs[T any](ctx context.Context, db *sql.DB, col string) ([]T, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT doc FROM collections WHERE collection = $1 ORDER BY pos`, col)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", model.ErrStoreUnavailable, col, err)
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", model.ErrStoreUnavailable, col, err)
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", model.ErrStoreUnavailable, col, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", model.ErrStoreUnavailable, col, err)
	}
	return records, nil
}

// replaceDocs overwrites a collection atomically: delete plus re-insert in
// one transaction.
func replaceDocs[T any](ctx context.Context, db *sql.DB, col string, records []T) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin %s: %v", model.ErrStoreUnavailable, col, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM collections WHERE collection = $1`, col); err != nil {
		return fmt.Errorf("%w: clear %s: %v", model.ErrStoreUnavailable, col, err)
	}
	for i, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", model.ErrStoreUnavailable, col, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections (collection, pos, doc) VALUES ($1, $2, $3)`,
			col, i, doc); err != nil {
			return fmt.Errorf("%w: insert %s: %v", model.ErrStoreUnavailable, col, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %v", model.ErrStoreUnavailable, col, err)
	}
	return nil
}
