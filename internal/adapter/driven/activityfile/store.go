// Package activityfile persists activity records as a single JSON document
// keyed by repository full name, matching the layout
// {"owner/repo": {"repo_name": ..., "last_date_activity": ISO-8601, "attempts": N}}.
package activityfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reviewgate/reviewgate/internal/domain/model"
	"github.com/reviewgate/reviewgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActivityStore = (*Store)(nil)

// Store is the JSON-file implementation of the ActivityStore port.
// A missing or corrupt file degrades to an empty mapping on Load; Save
// rewrites the whole document through a temp-file rename so readers never
// observe a partial write.
type Store struct {
	path string
}

// New creates a Store backed by the JSON file at path.
func New(path string) *Store {
	return &Store{path: path}
}

type fileRecord struct {
	RepoName         string `json:"repo_name"`
	LastDateActivity string `json:"last_date_activity"`
	Attempts         int    `json:"attempts"`
}

// Load reads all records. Any read or decode failure yields an empty map:
// the store is self-healing because the next Save rewrites it in full.
func (s *Store) Load(_ context.Context) (map[string]model.ActivityRecord, error) {
	records := make(map[string]model.ActivityRecord)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return records, nil
	}

	var raw map[string]fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[string]model.ActivityRecord{}, nil
	}

	for key, fr := range raw {
		ts, err := parseTimestamp(fr.LastDateActivity)
		if err != nil {
			return map[string]model.ActivityRecord{}, nil
		}
		name := fr.RepoName
		if name == "" {
			name = key
		}
		records[key] = model.ActivityRecord{
			RepoName:       name,
			LastActivityAt: ts,
			AttemptsToday:  fr.Attempts,
		}
	}

	return records, nil
}

// offsetlessLayout matches timestamps written without a zone offset by
// earlier versions of the activity file. They are read as host-local time,
// which is the zone they were written in.
const offsetlessLayout = "2006-01-02T15:04:05.999999999"

func parseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts, nil
	}
	return time.ParseInLocation(offsetlessLayout, v, time.Local)
}

// Save overwrites the stored document with records.
func (s *Store) Save(_ context.Context, records map[string]model.ActivityRecord) error {
	raw := make(map[string]fileRecord, len(records))
	for key, rec := range records {
		raw[key] = fileRecord{
			RepoName:         rec.RepoName,
			LastDateActivity: rec.LastActivityAt.UTC().Format(time.RFC3339Nano),
			Attempts:         rec.AttemptsToday,
		}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode activity records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".activity-*.json")
	if err != nil {
		return fmt.Errorf("create temp activity file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write activity records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp activity file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace activity file: %w", err)
	}
	return nil
}
