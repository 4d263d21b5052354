package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bbgflow/config"
	"bbgflow/logger"
)

// Store writes financial ratio rows into a Postgres schema/table,
// creating both when absent. Inserts are per-row and best-effort:
// committed rows stay committed even when later rows fail.
type Store struct {
	db  *sqlx.DB
	log *logger.Log
}

// Open connects to the configured store and verifies the connection.
func Open(cfg config.StoreConfig) (*Store, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Address,
		cfg.Port,
		cfg.Database,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to store at %s:%s: %w", cfg.Address, cfg.Port, err)
	}

	log := logger.GetLogger()
	log.WithComponent("store").WithFields(logger.Fields{
		"address":  cfg.Address,
		"port":     cfg.Port,
		"database": cfg.Database,
	}).Info("connected to relational store")

	return &Store{db: db, log: log}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	s.log.WithComponent("store").Info("closing store connection")
	return s.db.Close()
}

// EnsureSchema creates the schema when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context, schema string) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}
	s.log.WithComponent("store").WithFields(logger.Fields{"schema": schema}).Info("schema ensured")
	return nil
}

// EnsureTable creates the ratios table when it does not exist.
func (s *Store) EnsureTable(ctx context.Context, schema, table string) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q.%q (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		ticker VARCHAR(50),
		identifier_type VARCHAR(20),
		identifier_value VARCHAR(100),
		tot_debt_to_tot_asset NUMERIC(18,6),
		cash_dvd_coverage NUMERIC(18,6),
		tot_debt_to_ebitda NUMERIC(18,6),
		cur_ratio NUMERIC(18,6),
		quick_ratio NUMERIC(18,6),
		gross_margin NUMERIC(18,6),
		interest_coverage_ratio NUMERIC(18,6),
		ebitda_margin NUMERIC(18,6),
		tot_liab_and_eqy NUMERIC(18,6),
		net_debt_to_shrhldr_eqty NUMERIC(18,6),
		recorded_at TIMESTAMPTZ NOT NULL
	)`, schema, table)

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s.%s: %w", schema, table, err)
	}
	s.log.WithComponent("store").WithFields(logger.Fields{"schema": schema, "table": table}).Info("table ensured")
	return nil
}

// InsertRows inserts rows one at a time. Failures are logged, skipped and
// counted; the return value is inserted vs attempted. Nothing is rolled
// back: the load is at-least-once, not transactional, and re-running it
// with the same rows produces duplicates.
func (s *Store) InsertRows(ctx context.Context, schema, table string, rows []Row) (int, int) {
	query := fmt.Sprintf(`INSERT INTO %q.%q (
		ticker, identifier_type, identifier_value,
		tot_debt_to_tot_asset, cash_dvd_coverage, tot_debt_to_ebitda,
		cur_ratio, quick_ratio, gross_margin,
		interest_coverage_ratio, ebitda_margin, tot_liab_and_eqy,
		net_debt_to_shrhldr_eqty, recorded_at
	) VALUES (
		:ticker, :identifier_type, :identifier_value,
		:tot_debt_to_tot_asset, :cash_dvd_coverage, :tot_debt_to_ebitda,
		:cur_ratio, :quick_ratio, :gross_margin,
		:interest_coverage_ratio, :ebitda_margin, :tot_liab_and_eqy,
		:net_debt_to_shrhldr_eqty, :recorded_at
	)`, schema, table)

	log := s.log.WithComponent("store").WithFields(logger.Fields{"schema": schema, "table": table})

	inserted := 0
	for i, row := range rows {
		if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
			log.WithError(err).WithFields(logger.Fields{"row": i, "ticker": row.Ticker}).Warn("failed to insert row, skipping")
			continue
		}
		inserted++
	}

	log.WithFields(logger.Fields{
		"inserted":  inserted,
		"attempted": len(rows),
	}).Info("insert finished")

	return inserted, len(rows)
}
