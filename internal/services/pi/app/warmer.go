package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/sunpi/internal/core/pi"
)

// ErrInconsistentDigits reports that a new expansion disagreed with the
// previous one on their shared digits.
var ErrInconsistentDigits = errors.New("pi expansions disagree")

// warmProvider is the part of pi.Provider the warmer drives.
type warmProvider interface {
	Latest(ctx context.Context) (pi.Value, bool, error)
	Compute(ctx context.Context, digits int) (pi.Value, error)
	Publish(ctx context.Context, value pi.Value) error
	MaxDigits() int
}

// Warmer computes π at increasing precision in the background, so the most
// precise value is ready before anyone asks for it.
type Warmer struct {
	provider warmProvider
	target   int
	step     int
}

// NewWarmer creates a warmer that climbs to target digits step at a time.
func NewWarmer(provider warmProvider, target, step int) (*Warmer, error) {
	if provider == nil {
		return nil, errors.New("pi provider is required")
	}
	if target < 0 {
		return nil, fmt.Errorf("warm target must not be negative, got %d", target)
	}
	if step <= 0 {
		return nil, fmt.Errorf("warm step must be positive, got %d", step)
	}
	return &Warmer{provider: provider, target: min(target, provider.MaxDigits()), step: step}, nil
}

// Run resumes from the most precise value already available and publishes
// each new precision until the target is reached or ctx ends. A computation
// that times out stops the climb; the values published so far stay served.
func (w *Warmer) Run(ctx context.Context) error {
	previous, resumed, err := w.provider.Latest(ctx)
	if err != nil {
		log.Printf("warmer: load latest pi: %v", err)
		resumed = false
	}
	current := 0
	if resumed {
		current = previous.Digits()
		log.Printf("warmer: resuming from %d digits", current)
	}

	for current < w.target {
		next := min(current+w.step, w.target)
		start := time.Now()
		value, err := w.provider.Compute(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, pi.ErrPrecisionUnavailable) {
				log.Printf("warmer: stopping at %d digits: %v", current, err)
				return nil
			}
			return fmt.Errorf("warm %d digits: %w", next, err)
		}

		if resumed {
			if matched := pi.MatchingDigits(value, previous); matched != previous.Digits() {
				return fmt.Errorf("%w: %d digits agree with %d on only %d", ErrInconsistentDigits, next, previous.Digits(), matched)
			}
		}
		if err := w.provider.Publish(ctx, value); err != nil {
			log.Printf("warmer: publish %d digits: %v", next, err)
		}
		log.Printf("warmer: computed %d digits in %s", next, time.Since(start).Round(time.Millisecond))

		previous, resumed, current = value, true, next
	}
	return nil
}
