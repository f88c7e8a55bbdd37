package audit

import (
	"context"
	"fmt"
	"time"
)

// Purger runs the explicit retention cleanup: audit records older than the
// threshold, and inactive sessions whose last activity predates it.
type Purger struct {
	records  *Repository
	sessions *SessionRepository
	now      func() time.Time
}

// PurgerParams bundles the dependencies for the retention purger.
type PurgerParams struct {
	Records  *Repository
	Sessions *SessionRepository
	Now      func() time.Time
}

// NewPurger constructs the retention purger.
func NewPurger(params PurgerParams) (*Purger, error) {
	if params.Records == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session repository is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Purger{records: params.Records, sessions: params.Sessions, now: now}, nil
}

// PurgeRecords removes audit records strictly older than the threshold in
// days and returns the exact count removed.
func (p *Purger) PurgeRecords(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", days)
	}
	cutoff := p.now().AddDate(0, 0, -days)
	return p.records.DeleteOlderThan(ctx, cutoff)
}

// PurgeInactiveSessions removes inactive sessions whose last activity is
// older than the threshold in days and returns the exact count removed.
func (p *Purger) PurgeInactiveSessions(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", days)
	}
	cutoff := p.now().AddDate(0, 0, -days)
	return p.sessions.DeleteInactiveBefore(ctx, cutoff)
}
