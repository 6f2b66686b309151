// Package plugintest provides a deterministic mock plugin used to exercise
// the scheduler and session test suites without real network I/O.
package plugintest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wardenlabs/bruteloom/pkg/plugin"
)

// Options controls Mock's deterministic behavior.
type Options struct{}

// Validate is a no-op.
func (*Options) Validate() error { return nil }

// Mock is a configurable plugin used by tests.
//
//   - Latency: sleep before returning (simulates attempt latency).
//   - LootOnAttempt: if > 0, the N-th attempt (1-indexed, counted across all
//     workers) returns Loot; every other attempt returns nil, nil.
//   - AlwaysFatal / AlwaysTransient: force every attempt to fail with the
//     given error class, for retry/abort testing.
//   - single: the value SingleMatch() reports.
type Mock struct {
	ID_             string
	Latency         time.Duration
	LootOnAttempt   uint64
	AlwaysFatal     bool
	AlwaysTransient bool
	single          bool

	counter uint64
}

// NewMock builds a mock plugin with id idValue.
func NewMock(idValue string) *Mock {
	return &Mock{ID_: idValue}
}

// WithSingleMatch sets whether SingleMatch() returns true.
func (m *Mock) WithSingleMatch(v bool) *Mock {
	m.single = v
	return m
}

func (m *Mock) ID() string          { return m.ID_ }
func (m *Mock) DefaultPort() int    { return 0 }
func (m *Mock) SingleMatch() bool   { return m.single }
func (m *Mock) NewOptions() plugin.Options { return &Options{} }

func (m *Mock) RequiredDimensions() []plugin.Dimension {
	return []plugin.Dimension{plugin.DimensionUsername, plugin.DimensionPassword, plugin.DimensionTarget}
}

// Attempts returns the number of Attempt calls made so far.
func (m *Mock) Attempts() uint64 { return atomic.LoadUint64(&m.counter) }

func (m *Mock) Attempt(ctx context.Context, creds plugin.Credentials, _ plugin.Options) (*plugin.Loot, error) {
	n := atomic.AddUint64(&m.counter, 1)

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, plugin.NewTransientError(ctx.Err())
		}
	}

	if m.AlwaysFatal {
		return nil, plugin.NewFatalError(errMock)
	}
	if m.AlwaysTransient {
		return nil, plugin.NewTransientError(errMock)
	}

	if m.LootOnAttempt > 0 && n == m.LootOnAttempt {
		return &plugin.Loot{
			Plugin: m.ID_,
			Target: creds.Target,
			Port:   creds.Port,
			Credentials: map[string]string{
				"username": creds.Username,
				"password": creds.Password,
			},
			Timestamp: time.Now(),
		}, nil
	}
	return nil, nil
}

var errMock = mockErr("mock attempt failure")

type mockErr string

func (e mockErr) Error() string { return string(e) }
