package sqlite

import (
	"context"
	"fmt"

	"github.com/reviewgate/reviewgate/internal/domain/model"
	"github.com/reviewgate/reviewgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActivityStore = (*ActivityRepo)(nil)

// ActivityRepo is the SQLite implementation of the ActivityStore port.
// Save replaces the entire table in one transaction, preserving the port's
// whole-mapping overwrite semantics.
type ActivityRepo struct {
	db *DB
}

// NewActivityRepo creates a new ActivityRepo backed by the given DB.
func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// Load returns all activity records keyed by repository full name.
func (r *ActivityRepo) Load(ctx context.Context) (map[string]model.ActivityRecord, error) {
	const query = `
		SELECT repo_full_name, last_activity_at, attempts_today
		FROM activity_records
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load activity records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]model.ActivityRecord)
	for rows.Next() {
		var rec model.ActivityRecord
		if err := rows.Scan(&rec.RepoName, &rec.LastActivityAt, &rec.AttemptsToday); err != nil {
			return nil, fmt.Errorf("scan activity record: %w", err)
		}
		records[rec.RepoName] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity records: %w", err)
	}

	return records, nil
}

// Save overwrites the stored mapping with records in a single transaction.
func (r *ActivityRepo) Save(ctx context.Context, records map[string]model.ActivityRecord) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activity_records`); err != nil {
		return fmt.Errorf("clear activity records: %w", err)
	}

	const insert = `
		INSERT INTO activity_records (repo_full_name, last_activity_at, attempts_today)
		VALUES (?, ?, ?)
	`
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, insert, rec.RepoName, rec.LastActivityAt.UTC(), rec.AttemptsToday); err != nil {
			return fmt.Errorf("insert activity record %s: %w", rec.RepoName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activity records: %w", err)
	}
	return nil
}
