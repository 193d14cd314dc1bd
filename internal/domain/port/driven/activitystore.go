package driven

import (
	"context"

	"github.com/reviewgate/reviewgate/internal/domain/model"
)

// ActivityStore defines the driven port for admission-state persistence.
// The store exposes whole-mapping semantics only: callers load, mutate, and
// save the full mapping as one logical unit. Request volume is human-triggered
// and low, so the read-modify-write cost is acceptable.
type ActivityStore interface {
	// Load returns all activity records keyed by repository full name.
	// A missing or corrupt backing store yields an empty map, not an error;
	// errors are reserved for infrastructure failures the caller may want to
	// degrade from explicitly.
	Load(ctx context.Context) (map[string]model.ActivityRecord, error)

	// Save overwrites the entire stored mapping. A record that failed to
	// persist must not be treated as committed, so errors propagate.
	Save(ctx context.Context, records map[string]model.ActivityRecord) error
}
