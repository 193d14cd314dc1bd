// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reviewgate/reviewgate/internal/domain/model"
	"github.com/reviewgate/reviewgate/internal/domain/port/driven"
)

// firstUseRemaining is the sentinel remaining-count reported on the
// first-ever request for a repository and on day rollover. It is not computed
// from the quota; the upstream comment format expects this placeholder, so it
// is preserved rather than replaced with allowedTotal-1.
const firstUseRemaining = 99

// AdmissionService decides whether a review request for a repository may
// proceed now (Check) and records the outcome of processed requests
// (Register). All activity-store access is serialized behind a single mutex
// so concurrent webhook deliveries cannot interleave load-modify-save cycles.
//
// Check and Register must both be called exactly once per processed request,
// in that order: Check refreshes the timestamp and seeds the counter on
// first use or rollover, Register does the actual increment.
type AdmissionService struct {
	mu       sync.Mutex
	store    driven.ActivityStore
	policy   model.QuotaPolicy
	notifier driven.Notifier // May be nil; rejections are then only logged.
	logger   *slog.Logger
}

// NewAdmissionService creates an AdmissionService. notifier may be nil to
// disable out-of-band alerts on rejections.
func NewAdmissionService(store driven.ActivityStore, policy model.QuotaPolicy, notifier driven.Notifier, logger *slog.Logger) *AdmissionService {
	return &AdmissionService{
		store:    store,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
	}
}

// Check evaluates the cooldown and daily-quota rules for repoFullName at the
// given instant and persists any state changes. Rejections are normal results
// carried in the Decision; an error means the decision could not be persisted
// and must not be treated as committed.
func (s *AdmissionService) Check(ctx context.Context, repoFullName string, now time.Time) (model.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadRecords(ctx)
	allowedTotal := s.policy.AllowedPerDay()

	rec, exists := records[repoFullName]
	if !exists {
		records[repoFullName] = model.ActivityRecord{
			RepoName:       repoFullName,
			LastActivityAt: now,
			AttemptsToday:  1,
		}
		if err := s.store.Save(ctx, records); err != nil {
			return model.Decision{}, fmt.Errorf("persist first-use record for %s: %w", repoFullName, err)
		}
		return accepted(model.DecisionFirstUse, firstUseRemaining, allowedTotal), nil
	}

	if !rec.SameDay(now) {
		rec.LastActivityAt = now
		rec.AttemptsToday = 1
		records[repoFullName] = rec
		if err := s.store.Save(ctx, records); err != nil {
			return model.Decision{}, fmt.Errorf("persist day-rollover record for %s: %w", repoFullName, err)
		}
		return accepted(model.DecisionDayRollover, firstUseRemaining, allowedTotal), nil
	}

	// Cooldown rejection leaves the record untouched so the window is
	// measured from the last accepted request, not the last attempt.
	if now.Sub(rec.LastActivityAt) < s.policy.Cooldown {
		dec := model.Decision{
			Allowed:      false,
			Reason:       model.DecisionCooldown,
			Message:      fmt.Sprintf("Requests are too frequent. Retry after %s.", s.policy.Cooldown),
			Remaining:    0,
			AllowedTotal: allowedTotal,
		}
		s.reportRejection(ctx, repoFullName, dec)
		return dec, nil
	}

	rec.LastActivityAt = now
	records[repoFullName] = rec

	remaining := allowedTotal - rec.AttemptsToday
	if remaining <= 0 {
		// The timestamp refresh is persisted even though the request is
		// rejected, re-arming the cooldown window for the next attempt.
		if err := s.store.Save(ctx, records); err != nil {
			return model.Decision{}, fmt.Errorf("persist quota-exhausted record for %s: %w", repoFullName, err)
		}
		dec := model.Decision{
			Allowed:      false,
			Reason:       model.DecisionQuotaExhausted,
			Message:      "Daily attempt limit exhausted.",
			Remaining:    0,
			AllowedTotal: allowedTotal,
		}
		s.reportRejection(ctx, repoFullName, dec)
		return dec, nil
	}

	if err := s.store.Save(ctx, records); err != nil {
		return model.Decision{}, fmt.Errorf("persist admission record for %s: %w", repoFullName, err)
	}
	return accepted(model.DecisionAccepted, remaining, allowedTotal), nil
}

// Register records the outcome of a processed request. The attempt counter is
// incremented unconditionally; success exists for future differentiated
// accounting and does not change counting behavior today. A persistence
// failure is fatal to the operation and propagates.
func (s *AdmissionService) Register(ctx context.Context, repoFullName string, success bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadRecords(ctx)

	rec, exists := records[repoFullName]
	if !exists {
		rec = model.ActivityRecord{
			RepoName:       repoFullName,
			LastActivityAt: now,
			AttemptsToday:  0,
		}
	}

	if !rec.SameDay(now) {
		rec.LastActivityAt = now
		rec.AttemptsToday = 0
	}

	rec.AttemptsToday++
	records[repoFullName] = rec

	if err := s.store.Save(ctx, records); err != nil {
		return fmt.Errorf("register attempt for %s: %w", repoFullName, err)
	}

	s.logger.Info("attempt registered",
		"repo", repoFullName,
		"success", success,
		"attempts_today", rec.AttemptsToday,
	)
	return nil
}

// loadRecords loads the activity mapping, degrading to an empty map when the
// store is unreadable. Load failures are non-fatal and self-healing: the next
// Save rewrites the full mapping.
func (s *AdmissionService) loadRecords(ctx context.Context) map[string]model.ActivityRecord {
	records, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("activity store unreadable, starting from empty state", "error", err)
		return map[string]model.ActivityRecord{}
	}
	if records == nil {
		return map[string]model.ActivityRecord{}
	}
	return records
}

// reportRejection mirrors an admission rejection to the alerting channel.
// Delivery is best-effort; failure is logged and never affects the decision.
func (s *AdmissionService) reportRejection(ctx context.Context, repoFullName string, dec model.Decision) {
	s.logger.Info("admission rejected", "repo", repoFullName, "reason", string(dec.Reason))
	if s.notifier == nil {
		return
	}
	body := fmt.Sprintf("Repository: %s\n\nRejection:\n\n%s", repoFullName, dec.Message)
	if err := s.notifier.Notify(ctx, "Admission rejected", body); err != nil {
		s.logger.Error("alert delivery failed", "error", err)
	}
}

func accepted(reason model.DecisionReason, remaining, allowedTotal int) model.Decision {
	return model.Decision{
		Allowed:      true,
		Reason:       reason,
		Message:      fmt.Sprintf("Request accepted. Remaining today: %d/%d.", remaining, allowedTotal),
		Remaining:    remaining,
		AllowedTotal: allowedTotal,
	}
}
