package pi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxDigits bounds servable precision when no limit is configured.
	DefaultMaxDigits = 10000

	// DefaultComputeTimeout bounds a single computation.
	DefaultComputeTimeout = 10 * time.Second

	// verifyDigits is how many leading digits of a stored value are
	// recomputed before the value is served.
	verifyDigits = 256
)

// ErrStoredValueMismatch reports a stored value that disagrees with the series.
var ErrStoredValueMismatch = errors.New("stored pi value disagrees with computed digits")

var tracer = otel.Tracer("github.com/louisbranch/sunpi/internal/core/pi")

// Option configures a Provider.
type Option func(*Provider)

// WithMaxDigits sets the largest precision the provider serves.
func WithMaxDigits(maxDigits int) Option {
	return func(p *Provider) { p.maxDigits = maxDigits }
}

// WithCache replaces the in-memory cache.
func WithCache(cache Cache) Option {
	return func(p *Provider) { p.cache = cache }
}

// WithStore sets a persistent store consulted before computing.
func WithStore(store Store) Option {
	return func(p *Provider) { p.store = store }
}

// WithPool sets the goroutine pool used to parallelise large computations.
func WithPool(pool *ants.Pool) Option {
	return func(p *Provider) { p.pool = pool }
}

// WithComputeTimeout bounds each computation.
func WithComputeTimeout(timeout time.Duration) Option {
	return func(p *Provider) { p.computeTimeout = timeout }
}

// Provider serves π to a requested number of fractional digits.
//
// Provider is safe for concurrent use. Concurrent requests for the same
// precision share one computation; results are published to the cache only
// once complete.
type Provider struct {
	maxDigits      int
	computeTimeout time.Duration
	cache          Cache
	store          Store
	pool           *ants.Pool
	inflight       singleflight.Group
}

// NewProvider builds a provider from opts.
func NewProvider(opts ...Option) (*Provider, error) {
	p := &Provider{
		maxDigits:      DefaultMaxDigits,
		computeTimeout: DefaultComputeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxDigits < 0 {
		return nil, fmt.Errorf("max digits must be non-negative, got %d", p.maxDigits)
	}
	if p.computeTimeout <= 0 {
		return nil, fmt.Errorf("compute timeout must be positive, got %s", p.computeTimeout)
	}
	if p.cache == nil {
		p.cache = NewMemoryCache()
	}
	return p, nil
}

// MaxDigits returns the largest servable precision.
func (p *Provider) MaxDigits() int {
	return p.maxDigits
}

// Check validates a requested precision without computing anything.
func (p *Provider) Check(digits int) error {
	if digits < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPrecision, digits)
	}
	if digits > p.maxDigits {
		return fmt.Errorf("%w: requested %d digits, maximum is %d", ErrPrecisionUnavailable, digits, p.maxDigits)
	}
	return nil
}

// Get returns π with exactly digits fractional digits.
//
// Errors wrap ErrInvalidPrecision for negative precision and
// ErrPrecisionUnavailable when digits exceeds MaxDigits or the computation
// is cancelled or times out. A failed call never returns a partial Value.
func (p *Provider) Get(ctx context.Context, digits int) (Value, error) {
	if err := p.Check(digits); err != nil {
		return Value{}, err
	}
	if value, ok := p.cache.Lookup(digits); ok {
		return value, nil
	}

	// The shared computation outlives any single caller; each caller
	// still stops waiting when its own context ends.
	results := p.inflight.DoChan(strconv.Itoa(digits), func() (any, error) {
		return p.produce(context.WithoutCancel(ctx), digits)
	})
	select {
	case <-ctx.Done():
		return Value{}, fmt.Errorf("%w: %w", ErrPrecisionUnavailable, ctx.Err())
	case result := <-results:
		if result.Err != nil {
			return Value{}, result.Err
		}
		return result.Val.(Value), nil
	}
}

// produce loads or computes a value and publishes it.
func (p *Provider) produce(ctx context.Context, digits int) (Value, error) {
	if value, ok := p.cache.Lookup(digits); ok {
		return value, nil
	}
	if p.store != nil {
		stored, ok, err := p.store.LoadPi(ctx, digits)
		if err != nil {
			log.Printf("load pi from store: %v", err)
		} else if ok {
			value, err := p.trustStored(ctx, stored, digits)
			if err == nil {
				return value, nil
			}
			log.Printf("discard stored pi value with %d digits: %v", stored.Digits(), err)
		}
	}

	value, err := p.Compute(ctx, digits)
	if err != nil {
		return Value{}, err
	}
	p.cache.Publish(value)
	if p.store != nil {
		if err := p.store.SavePi(ctx, value); err != nil {
			log.Printf("save pi with %d digits: %v", digits, err)
		}
	}
	return value, nil
}

// Compute evaluates π to digits bypassing every cache.
func (p *Provider) Compute(ctx context.Context, digits int) (Value, error) {
	if err := p.Check(digits); err != nil {
		return Value{}, err
	}
	ctx, span := tracer.Start(ctx, "pi.Compute", trace.WithAttributes(attribute.Int("pi.digits", digits)))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, p.computeTimeout)
	defer cancel()

	text, err := computer{pool: p.pool}.digits(ctx, digits)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute failed")
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Value{}, fmt.Errorf("%w: computing %d digits: %w", ErrPrecisionUnavailable, digits, err)
		}
		return Value{}, fmt.Errorf("compute %d digits: %w", digits, err)
	}
	value, err := Parse(text)
	if err != nil {
		return Value{}, fmt.Errorf("compute %d digits: %w", digits, err)
	}
	if value.Digits() != digits {
		return Value{}, fmt.Errorf("compute %d digits: produced %d", digits, value.Digits())
	}
	return value, nil
}

// Latest returns the most precise value produced so far, if any.
func (p *Provider) Latest(ctx context.Context) (Value, bool, error) {
	cached, cachedOK := p.cache.Max()
	if p.store == nil {
		return cached, cachedOK, nil
	}
	minDigits := 0
	if cachedOK {
		minDigits = cached.Digits() + 1
	}
	stored, ok, err := p.store.LoadPi(ctx, minDigits)
	if err != nil {
		if cachedOK {
			log.Printf("load latest pi from store: %v", err)
			return cached, true, nil
		}
		return Value{}, false, err
	}
	if !ok {
		return cached, cachedOK, nil
	}
	if err := p.verify(ctx, stored); err != nil {
		log.Printf("discard stored pi value with %d digits: %v", stored.Digits(), err)
		return cached, cachedOK, nil
	}
	p.cache.Publish(stored)
	return stored, true, nil
}

// trustStored verifies stored, publishes it and truncates it to digits.
func (p *Provider) trustStored(ctx context.Context, stored Value, digits int) (Value, error) {
	value, err := stored.Truncate(digits)
	if err != nil {
		return Value{}, err
	}
	if err := p.verify(ctx, stored); err != nil {
		return Value{}, err
	}
	p.cache.Publish(stored)
	return value, nil
}

// verify recomputes the first verifyDigits digits of stored and compares
// them. Digits past verifyDigits are not checked.
func (p *Provider) verify(ctx context.Context, stored Value) error {
	n := min(stored.Digits(), verifyDigits)
	text, err := computer{}.digits(ctx, n)
	if err != nil {
		return fmt.Errorf("verify stored value: %w", err)
	}
	fresh, err := Parse(text)
	if err != nil {
		return fmt.Errorf("verify stored value: %w", err)
	}
	if matched := MatchingDigits(stored, fresh); matched < n {
		return fmt.Errorf("%w: %d of %d digits agree", ErrStoredValueMismatch, max(matched, 0), n)
	}
	return nil
}

// Publish stores a value produced outside Get, e.g. by a background warmer.
func (p *Provider) Publish(ctx context.Context, value Value) error {
	if value.IsZero() {
		return errors.New("pi value is required")
	}
	p.cache.Publish(value)
	if p.store == nil {
		return nil
	}
	return p.store.SavePi(ctx, value)
}
