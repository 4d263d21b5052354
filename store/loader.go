package store

import (
	"context"
	"fmt"
	"time"

	"bbgflow/logger"
)

// Load parses the downloaded artifact and inserts its rows into the given
// schema and table, creating both when absent. A run that inserts zero
// rows out of a non-empty artifact is a load failure; partially inserted
// rows stay committed.
func (s *Store) Load(ctx context.Context, schema, table, artifactPath string) (int, error) {
	records, err := ReadArtifact(artifactPath)
	if err != nil {
		return 0, err
	}

	log := s.log.WithComponent("store").WithFields(logger.Fields{"artifact": artifactPath})
	log.WithFields(logger.Fields{"records": len(records)}).Info("parsed artifact")

	if len(records) == 0 {
		return 0, fmt.Errorf("artifact %s contains no records", artifactPath)
	}

	if err := s.EnsureSchema(ctx, schema); err != nil {
		return 0, err
	}
	if err := s.EnsureTable(ctx, schema, table); err != nil {
		return 0, err
	}

	rows := MapRecords(records, time.Now().UTC())
	inserted, attempted := s.InsertRows(ctx, schema, table, rows)

	s.log.LogMetric("store", "rows_inserted", inserted, logger.Fields{"table": table})

	if inserted == 0 {
		return 0, fmt.Errorf("no rows inserted out of %d attempted", attempted)
	}

	return inserted, nil
}
