package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/bruteloom/pkg/plugin"
	"github.com/wardenlabs/bruteloom/pkg/session"
)

func TestAttemptsDoneIsMonotonic(t *testing.T) {
	sess := session.New("s1", "test", nil, "mock", "t.invalid", 100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.AttemptDone()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), sess.AttemptsDone())
}

func TestLootAndOutputNoOpAfterComplete(t *testing.T) {
	sess := session.New("s1", "test", nil, "mock", "t.invalid", 1)
	sess.Complete(0, nil)

	sess.Loot(&plugin.Loot{Target: "t", Port: 1})
	sess.Output("should not appear")

	snap := sess.Snapshot()
	assert.Empty(t, snap.Findings)
	assert.Empty(t, snap.Output)
}

func TestStopIsIdempotentAndCancelsContext(t *testing.T) {
	sess := session.New("s1", "test", nil, "mock", "t.invalid", 1)
	ctx, cancel := context.WithCancel(context.Background())
	sess.SetCancelFunc(cancel)

	require.True(t, sess.Stop())
	require.True(t, sess.Stop())

	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected context to be cancelled after Stop")
	}

	assert.Equal(t, session.StateStopping, sess.State())
}

func TestSnapshotExitCodeOnlyAfterCompleted(t *testing.T) {
	sess := session.New("s1", "test", nil, "mock", "t.invalid", 1)
	assert.Nil(t, sess.Snapshot().ExitCode)

	sess.Complete(1, nil)
	snap := sess.Snapshot()
	require.NotNil(t, snap.ExitCode)
	assert.Equal(t, 1, *snap.ExitCode)
	assert.Equal(t, session.StateCompleted, snap.State)
}
