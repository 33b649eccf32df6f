// Package store persists enriched registries to PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "aqicli/internal/errors"
	"aqicli/pkg/contracts/domain"
)

// MonthlyRow is one station × month cell. Average is NULL when the month
// has no data.
type MonthlyRow struct {
	StationName string          `db:"station_name"`
	FileName    string          `db:"file_name"`
	Month       string          `db:"month"`
	MonthStart  time.Time       `db:"month_start"`
	Average     sql.NullFloat64 `db:"average"`
}

// PostgresStore writes monthly averages to a single table
type PostgresStore struct {
	db     *sqlx.DB
	table  string
	logger *slog.Logger
}

// Open connects to the database and verifies the connection
func Open(ctx context.Context, dsn, table string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open database connection", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("failed to ping database", err)
	}

	logger.Info("PostgreSQL connection established", slog.String("table", table))
	return New(db, table, logger), nil
}

// New wraps an existing connection
func New(db *sqlx.DB, table string, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, table: table, logger: logger}
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the table when it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaQuery(s.table)); err != nil {
		return apperrors.NewStorageError("failed to create table", err).WithContext("table", s.table)
	}
	return nil
}

// SaveRegistry upserts every cell of the registry in one transaction
func (s *PostgresStore) SaveRegistry(ctx context.Context, reg *domain.EnrichedRegistry) (int, error) {
	rows := MonthlyRows(reg)
	start := time.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, upsertQuery(s.table))
	if err != nil {
		return 0, apperrors.NewStorageError("failed to prepare statement", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return 0, apperrors.NewStorageError("failed to upsert monthly average", err).
				WithContext("station", row.StationName).
				WithContext("month", row.Month)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewStorageError("failed to commit transaction", err)
	}

	s.logger.Info("Monthly averages stored",
		slog.Int("rows", len(rows)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return len(rows), nil
}

// Rows are keyed by source file id: averages derive from the file alone, so
// registry rows sharing a file_name carry identical cells.
func schemaQuery(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			file_name    TEXT NOT NULL,
			station_name TEXT NOT NULL,
			month        TEXT NOT NULL,
			month_start  DATE NOT NULL,
			average      DOUBLE PRECISION,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (file_name, month)
		)`, pq.QuoteIdentifier(table))
}

func upsertQuery(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (file_name, station_name, month, month_start, average, updated_at)
		VALUES (:file_name, :station_name, :month, :month_start, :average, NOW())
		ON CONFLICT (file_name, month) DO UPDATE SET
			station_name = EXCLUDED.station_name,
			average = EXCLUDED.average,
			updated_at = EXCLUDED.updated_at`, pq.QuoteIdentifier(table))
}

// MonthlyRows flattens the registry into one row per source file and month.
// Stations without a file id have no data and produce no rows; a repeated
// file id is emitted once.
func MonthlyRows(reg *domain.EnrichedRegistry) []MonthlyRow {
	rows := make([]MonthlyRow, 0, len(reg.Stations)*len(reg.Months))
	seen := make(map[string]bool, len(reg.Stations))
	for i, station := range reg.Stations {
		if station.FileName == "" || seen[station.FileName] {
			continue
		}
		seen[station.FileName] = true
		for j, month := range reg.Months {
			cell := reg.Cells[i][j]
			rows = append(rows, MonthlyRow{
				StationName: station.Name,
				FileName:    station.FileName,
				Month:       month.String(),
				MonthStart:  time.Date(month.Year, month.Month, 1, 0, 0, 0, 0, time.UTC),
				Average:     sql.NullFloat64{Float64: cell.Value, Valid: cell.Valid},
			})
		}
	}
	return rows
}
