// Package scheduler implements the bounded-concurrency attempt fan-out
// described for a single session: a producer enumerates the Cartesian
// product of target, username and password iterators into a bounded queue,
// and a fixed pool of workers drains it against a plugin with retry,
// per-attempt timeout and early-stop support.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wardenlabs/bruteloom/pkg/creds"
	"github.com/wardenlabs/bruteloom/pkg/plugin"
)

// Sink receives the scheduler's side effects. A Session implements this to
// collect findings and the diagnostic log and to track progress.
type Sink interface {
	// Loot records a successful finding.
	Loot(l *plugin.Loot)
	// Output appends one diagnostic log line.
	Output(line string)
	// AttemptDone is called once per completed attempt tuple (after all of
	// its retries), monotonically advancing attempts_done.
	AttemptDone()
}

// Config bundles a scheduler run's parameters, mirroring the inputs listed
// for the attempt scheduler.
type Config struct {
	Plugin  plugin.Plugin
	Options plugin.Options

	Usernames creds.Iterator
	Passwords creds.Iterator
	Targets   []creds.Target

	Concurrency    int           // W
	AttemptTimeout time.Duration // T
	Retries        int           // R

	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// RatePerSecond, if > 0, caps the dequeue rate via a token bucket with
	// burst == Concurrency.
	RatePerSecond float64

	Sink Sink
}

// Result reports how a scheduler run ended.
type Result struct {
	Cancelled bool // the stop-signal fired, either externally or via single-match
	HadFatal  bool // at least one attempt returned a FatalError
}

// Scheduler runs one campaign's worker pool.
type Scheduler struct {
	cfg     Config
	limiter *rate.Limiter
}

// New builds a Scheduler from cfg, applying defaults for zero-valued fields.
func New(cfg Config) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 5 * time.Second
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 200 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 5 * time.Second
	}

	s := &Scheduler{cfg: cfg}
	if cfg.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Concurrency)
	}
	return s
}

type tuple struct {
	creds plugin.Credentials
}

// Run drives the campaign to completion or until ctx is cancelled (the
// session's stop-signal). It returns once the producer has exhausted the
// product and every worker has gone idle, or once cancellation has been
// observed by all of them.
func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	innerCtx, cancelInner := context.WithCancel(ctx)
	defer cancelInner()

	var earlyStop atomic.Bool
	var hadFatal atomic.Bool

	queue := make(chan tuple, s.cfg.Concurrency)
	g, gctx := errgroup.WithContext(innerCtx)

	g.Go(func() error {
		defer close(queue)
		return s.produce(gctx, queue)
	})

	for i := 0; i < s.cfg.Concurrency; i++ {
		g.Go(func() error {
			return s.work(gctx, queue, cancelInner, &earlyStop, &hadFatal)
		})
	}

	err := g.Wait()
	// Cancellation (ours or our caller's) is an expected termination, not a
	// scheduler failure: surface it via Result, not as an error.
	cancelled := earlyStop.Load() || ctx.Err() != nil
	if err == context.Canceled {
		err = nil
	}
	return Result{Cancelled: cancelled, HadFatal: hadFatal.Load()}, err
}

// produce enumerates attempt tuples in canonical order: targets outermost,
// then usernames, then passwords. It is pushed into the bounded queue, which
// supplies backpressure without spawning one task per attempt.
func (s *Scheduler) produce(ctx context.Context, queue chan<- tuple) error {
	for _, target := range s.cfg.Targets {
		usernames := s.cfg.Usernames.Clone()
		for {
			username, ok := usernames.Next()
			if !ok {
				break
			}
			passwords := s.cfg.Passwords.Clone()
			for {
				password, ok := passwords.Next()
				if !ok {
					break
				}
				t := tuple{creds: plugin.Credentials{
					Username: username,
					Password: password,
					Target:   target.Host,
					Port:     target.Port,
				}}
				select {
				case queue <- t:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

// work dequeues tuples and drives them through the plugin with retry and
// per-attempt deadline handling until the queue closes or ctx is cancelled.
func (s *Scheduler) work(ctx context.Context, queue <-chan tuple, stop context.CancelFunc, earlyStop, hadFatal *atomic.Bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case t, ok := <-queue:
			if !ok {
				return nil
			}
			if err := s.attempt(ctx, t, stop, earlyStop, hadFatal); err != nil {
				return err
			}
		}
	}
}

// attempt drives a single tuple through the plugin, retrying on
// TransientError up to s.cfg.Retries times with exponential backoff. A
// FatalError is written to the sink's output and sets hadFatal; the tuple is
// dropped and the run continues. It always returns nil.
func (s *Scheduler) attempt(ctx context.Context, t tuple, stop context.CancelFunc, earlyStop, hadFatal *atomic.Bool) error {
	defer s.cfg.Sink.AttemptDone()

	delay := s.cfg.RetryBaseDelay
	var lastErr error

	for try := 0; try <= s.cfg.Retries; try++ {
		if try > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			delay *= 2
			if delay > s.cfg.RetryMaxDelay {
				delay = s.cfg.RetryMaxDelay
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		loot, err := s.cfg.Plugin.Attempt(attemptCtx, t.creds, s.cfg.Options)
		cancel()

		if err == nil {
			if loot != nil {
				s.cfg.Sink.Loot(loot)
				if s.cfg.Plugin.SingleMatch() {
					earlyStop.Store(true)
					stop()
				}
			}
			return nil
		}

		classifier, ok := err.(plugin.Classifier)
		if !ok || classifier.Classify() == plugin.ClassFatal {
			s.cfg.Sink.Output("fatal: " + t.creds.Target + ": " + err.Error())
			hadFatal.Store(true)
			return nil
		}

		lastErr = err
	}

	if lastErr != nil {
		s.cfg.Sink.Output("giving up after retries: " + t.creds.Target + ": " + lastErr.Error())
	}
	return nil
}
