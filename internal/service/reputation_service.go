package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"infinity/config"
	"infinity/internal/domain"
	"infinity/internal/retry"

	"github.com/rs/zerolog/log"
)

type reputationStore interface {
	IncrementReputation(ctx context.Context, userID uint, delta int) error
}

// ReputationService credits the fixed point table to users.
type ReputationService struct {
	store   reputationStore
	retry   retry.Config
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewReputationService(store reputationStore, cfg config.ReputationConfig) *ReputationService {
	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.MaxRetries
	if cfg.BaseDelay > 0 {
		rc.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		rc.MaxDelay = cfg.MaxDelay
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ReputationService{store: store, retry: rc, timeout: timeout}
}

// Apply adds the points of kind to userID in one store statement.
func (s *ReputationService) Apply(ctx context.Context, userID uint, kind domain.ReputationKind) error {
	points, ok := kind.Points()
	if !ok {
		return fmt.Errorf("%w: unknown reputation event %q", domain.ErrValidation, kind)
	}
	if userID == 0 {
		return fmt.Errorf("%w: user id required", domain.ErrValidation)
	}
	return s.store.IncrementReputation(ctx, userID, points)
}

// ApplyAsync applies kind in the background with bounded retries. A final failure is
// logged as a dead letter and never reaches the caller.
func (s *ReputationService) ApplyAsync(userID uint, kind domain.ReputationKind) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res := retry.Do(context.Background(), s.retry, func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return s.Apply(attemptCtx, userID, kind)
		}, isTransient)
		if !res.Success {
			log.Error().Err(res.LastError).
				Str("dead_letter", "reputation").
				Uint("user_id", userID).
				Str("kind", string(kind)).
				Int("attempts", res.Attempts).
				Msg("reputation: event dropped")
		}
	}()
}

// Drain waits for in-flight ApplyAsync calls or until ctx is done.
func (s *ReputationService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isTransient reports errors worth retrying: store outages, not missing users or bad input.
func isTransient(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
