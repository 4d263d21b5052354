package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"bbgflow/config"
)

// openTestStore connects to the database named by the DB_* environment
// variables and skips the test when they are not set.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("DB_ADDRESS")
	if addr == "" {
		t.Skip("DB_ADDRESS not set, skipping store integration test")
	}

	cfg := config.StoreConfig{
		Address:  addr,
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: os.Getenv("DB_NAME"),
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.Database == "" {
		cfg.Database = "postgres"
	}

	st, err := Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testRows(recordedAt time.Time) []Row {
	ratio := func(v float64) *float64 { return &v }
	return []Row{
		{
			Ticker:            "AAPL US Equity",
			IdentifierType:    "TICKER",
			IdentifierValue:   "AAPL US Equity",
			TotDebtToTotAsset: ratio(31.2),
			CurRatio:          ratio(0.98),
			RecordedAt:        recordedAt,
		},
		{
			Ticker:          "MSFT US Equity",
			IdentifierType:  "ISIN",
			IdentifierValue: "US5949181045",
			EbitdaMargin:    ratio(53.4),
			RecordedAt:      recordedAt,
		},
	}
}

func TestInsertRows(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	schema := "bbgflow_test"
	table := fmt.Sprintf("ratios_%d", time.Now().UnixNano())

	if err := st.EnsureSchema(ctx, schema); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := st.EnsureTable(ctx, schema, table); err != nil {
		t.Fatalf("ensure table: %v", err)
	}
	t.Cleanup(func() {
		st.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q.%q`, schema, table))
	})

	rows := testRows(time.Now().UTC())

	inserted, attempted := st.InsertRows(ctx, schema, table, rows)
	if attempted != 2 || inserted != 2 {
		t.Fatalf("expected 2/2 inserted, got %d/%d", inserted, attempted)
	}

	// The load is at-least-once: re-running the same rows appends again.
	inserted, _ = st.InsertRows(ctx, schema, table, rows)
	if inserted != 2 {
		t.Fatalf("expected rerun to insert 2 more rows, got %d", inserted)
	}

	var count int
	if err := st.db.GetContext(ctx, &count, fmt.Sprintf(`SELECT COUNT(*) FROM %q.%q`, schema, table)); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 rows after two runs, got %d", count)
	}
}

func TestEnsureTableIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	schema := "bbgflow_test"
	table := fmt.Sprintf("ratios_%d", time.Now().UnixNano())

	if err := st.EnsureSchema(ctx, schema); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := st.EnsureTable(ctx, schema, table); err != nil {
			t.Fatalf("ensure table (pass %d): %v", i+1, err)
		}
	}
	t.Cleanup(func() {
		st.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q.%q`, schema, table))
	})
}
