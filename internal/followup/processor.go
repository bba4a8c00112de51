package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/store"
)

// Stats summarizes one Drain run.
type Stats struct {
	Applied      int
	DeadLettered int
}

// Processor applies queued actions.
type Processor struct {
	queue       Queue
	clients     store.ClientStore
	maxAttempts int
	backoff     time.Duration
	logger      zerolog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithBackoff sets the delay before the first retry. Later retries double it.
func WithBackoff(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.backoff = d }
}

// NewProcessor creates a processor that tries each action up to maxAttempts times.
func NewProcessor(queue Queue, clients store.ClientStore, maxAttempts int, logger zerolog.Logger, opts ...ProcessorOption) *Processor {
	if maxAttempts < 1 {
		maxAttempts = constants.DefaultFollowUpMaxAttempts
	}
	p := &Processor{
		queue:       queue,
		clients:     clients,
		maxAttempts: maxAttempts,
		backoff:     constants.InitialBackoff,
		logger:      logger.With().Str("component", "followup").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Drain applies pending actions until the queue is empty or ctx ends.
func (p *Processor) Drain(ctx context.Context) (Stats, error) {
	var stats Stats
	for {
		a, err := p.queue.Dequeue(ctx)
		if errors.Is(err, docerrors.ErrQueueEmpty) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		if err := p.run(ctx, &a); err != nil {
			if ctx.Err() != nil {
				// Put the action back so a later run picks it up.
				if reqErr := p.queue.Enqueue(context.WithoutCancel(ctx), a); reqErr != nil {
					p.logger.Error().Err(reqErr).Str("action_id", a.ID).Msg("failed to requeue interrupted action")
				}
				return stats, ctx.Err()
			}
			a.LastError = err.Error()
			if dlErr := p.queue.DeadLetter(ctx, a); dlErr != nil {
				return stats, fmt.Errorf("failed to dead-letter action '%s': %w", a.ID, dlErr)
			}
			p.logger.Error().
				Err(err).
				Str("action_id", a.ID).
				Str("task_id", a.TaskID).
				Int("attempts", a.Attempts).
				Msg("follow-up action dead-lettered")
			stats.DeadLettered++
			continue
		}
		stats.Applied++
	}
}

// run tries an action with exponential backoff. Errors that cannot succeed
// on retry return immediately.
func (p *Processor) run(ctx context.Context, a *Action) error {
	var lastErr error
	backoff := p.backoff

	for a.Attempts < p.maxAttempts {
		a.Attempts++
		err := p.apply(ctx, a)
		if err == nil {
			p.logger.Debug().
				Str("action_id", a.ID).
				Str("kind", string(a.Kind)).
				Int("attempt", a.Attempts).
				Msg("follow-up action applied")
			return nil
		}
		if !isRetryable(err) {
			return err
		}

		lastErr = err
		if a.Attempts < p.maxAttempts {
			p.logger.Warn().
				Err(err).
				Str("action_id", a.ID).
				Int("attempt", a.Attempts).
				Int("max_attempts", p.maxAttempts).
				Dur("backoff", backoff).
				Msg("follow-up action failed, will retry after backoff")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= constants.BackoffMultiplier
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no attempts left")
	}
	return fmt.Errorf("max attempts exceeded: %w", lastErr)
}

func (p *Processor) apply(ctx context.Context, a *Action) error {
	switch a.Kind {
	case KindClientSummary:
		return p.clients.MergeClientFields(ctx, a.ClientID, a.Fields)
	default:
		return fmt.Errorf("%w: unknown follow-up kind %q", docerrors.ErrValidation, a.Kind)
	}
}

// isRetryable reports whether trying again could succeed.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, docerrors.ErrNotFound),
		errors.Is(err, docerrors.ErrValidation),
		errors.Is(err, docerrors.ErrEmptyValue),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
