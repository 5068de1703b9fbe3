package tracker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-reminder-bot/internal/models"
)

var (
	raw = models.MessageRef{ChatID: 42, MessageID: 1}
	ref = models.MessageRef{ChatID: 42, MessageID: 2}
	stm = models.Statement{Text: "Order vitamins"}
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTracker() (*Tracker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, time.January, 7, 10, 0, 0, 0, time.UTC)}
	n := 0
	return New(WithClock(clk.Now), WithIDs(func() string {
		n++
		return fmt.Sprintf("rem-%d", n)
	})), clk
}

func TestRegister(t *testing.T) {
	tr, clk := newTracker()

	e, err := tr.Register(stm, ref, raw)
	require.NoError(t, err)
	assert.Equal(t, "rem-1", e.ID)
	assert.Equal(t, models.StatePending, e.State)
	assert.Equal(t, clk.t, e.CreatedAt)
	assert.Equal(t, raw, e.Source)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, 1, tr.Pending())
}

func TestRegister_Duplicate(t *testing.T) {
	tr, _ := newTracker()

	_, err := tr.Register(stm, ref, raw)
	require.NoError(t, err)

	_, err = tr.Register(models.Statement{Text: "other"}, ref, raw)
	var dup *DuplicateRefError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, ref, dup.Ref)

	got, ok := tr.Get(ref)
	require.True(t, ok)
	assert.Equal(t, "Order vitamins", got.Statement.Text)
}

func TestNew_DefaultIDsAreUnique(t *testing.T) {
	tr := New()
	a, err := tr.Register(stm, ref, raw)
	require.NoError(t, err)
	b, err := tr.Register(stm, models.MessageRef{ChatID: 42, MessageID: 3}, raw)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestResolve_SecondCallRejected(t *testing.T) {
	tr, clk := newTracker()
	_, err := tr.Register(stm, ref, raw)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	e, err := tr.Resolve(ref, models.StateCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StateCancelled, e.State)
	assert.Equal(t, clk.t, e.ResolvedAt)

	_, err = tr.Resolve(ref, models.StateAcknowledged)
	var already *AlreadyResolvedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, models.StateCancelled, already.State)

	got, _ := tr.Get(ref)
	assert.Equal(t, models.StateCancelled, got.State)
}

func TestResolve_Errors(t *testing.T) {
	tr, _ := newTracker()

	_, err := tr.Resolve(ref, models.StateAcknowledged)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tr.Register(stm, ref, raw)
	require.NoError(t, err)
	_, err = tr.Resolve(ref, models.StatePending)
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	got, _ := tr.Get(ref)
	assert.Equal(t, models.StatePending, got.State)
}

func TestResolve_Concurrent(t *testing.T) {
	for round := 0; round < 200; round++ {
		tr, _ := newTracker()
		_, err := tr.Register(stm, ref, raw)
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			start     = make(chan struct{})
			successes atomic.Int32
			rejected  atomic.Int32
		)
		for _, outcome := range []models.State{models.StateAcknowledged, models.StateCancelled} {
			wg.Add(1)
			go func(outcome models.State) {
				defer wg.Done()
				<-start
				_, err := tr.Resolve(ref, outcome)
				var already *AlreadyResolvedError
				switch {
				case err == nil:
					successes.Add(1)
				case errors.As(err, &already):
					rejected.Add(1)
				}
			}(outcome)
		}
		close(start)
		wg.Wait()

		require.EqualValues(t, 1, successes.Load())
		require.EqualValues(t, 1, rejected.Load())

		got, _ := tr.Get(ref)
		require.True(t, got.State.Terminal())
	}
}

func TestEvict(t *testing.T) {
	tr, _ := newTracker()
	_, err := tr.Register(stm, ref, raw)
	require.NoError(t, err)

	err = tr.Evict(ref)
	var nt *NotTerminalError
	require.ErrorAs(t, err, &nt)
	assert.Equal(t, 1, tr.Len())

	_, err = tr.Resolve(ref, models.StateAcknowledged)
	require.NoError(t, err)
	require.NoError(t, tr.Evict(ref))
	assert.Equal(t, 0, tr.Len())

	assert.ErrorIs(t, tr.Evict(ref), ErrNotFound)
}

func TestClaimSource(t *testing.T) {
	tr, _ := newTracker()
	second := models.MessageRef{ChatID: 42, MessageID: 3}
	_, err := tr.Register(stm, ref, raw)
	require.NoError(t, err)
	_, err = tr.Register(models.Statement{Text: "Cancel LinkedIn"}, second, raw)
	require.NoError(t, err)

	assert.True(t, tr.ClaimSource(raw))
	assert.False(t, tr.ClaimSource(raw))

	_, _ = tr.Resolve(ref, models.StateAcknowledged)
	require.NoError(t, tr.Evict(ref))
	assert.False(t, tr.ClaimSource(raw), "claim kept while a sibling reminder exists")

	_, _ = tr.Resolve(second, models.StateCancelled)
	require.NoError(t, tr.Evict(second))
	assert.True(t, tr.ClaimSource(raw), "claim released with the last reminder")
}

func TestHoldSource(t *testing.T) {
	tr, _ := newTracker()
	second := models.MessageRef{ChatID: 42, MessageID: 3}

	tr.HoldSource(raw)
	_, err := tr.Register(stm, ref, raw)
	require.NoError(t, err)
	assert.False(t, tr.ClaimSource(raw), "held while posting")

	_, err = tr.Register(stm, second, raw)
	require.NoError(t, err)
	tr.ReleaseSource(raw, false)
	assert.True(t, tr.ClaimSource(raw))
}

func TestReleaseSource_Keep(t *testing.T) {
	tr, _ := newTracker()
	second := models.MessageRef{ChatID: 42, MessageID: 3}

	tr.HoldSource(raw)
	_, err := tr.Register(stm, ref, raw)
	require.NoError(t, err)
	_, err = tr.Register(stm, second, raw)
	require.NoError(t, err)
	tr.ReleaseSource(raw, true)

	_, _ = tr.Resolve(ref, models.StateAcknowledged)
	assert.False(t, tr.ClaimSource(raw))
	require.NoError(t, tr.Evict(ref))
	assert.False(t, tr.ClaimSource(raw), "kept while a sibling is tracked")

	_, _ = tr.Resolve(second, models.StateCancelled)
	require.NoError(t, tr.Evict(second))
	assert.True(t, tr.ClaimSource(raw), "nothing left to protect")
}

func TestReleaseSource_KeepWithoutReminders(t *testing.T) {
	tr, _ := newTracker()

	tr.HoldSource(raw)
	tr.ReleaseSource(raw, true)
	assert.True(t, tr.ClaimSource(raw))
}

func TestSourceRetries(t *testing.T) {
	tr, clk := newTracker()
	other := models.MessageRef{ChatID: 7, MessageID: 9}

	assert.Equal(t, 1, tr.RetrySource(raw))
	first := clk.t
	clk.Advance(time.Minute)
	assert.Equal(t, 1, tr.RetrySource(other))
	assert.Equal(t, 2, tr.RetrySource(raw))

	got := tr.SourceRetries()
	require.Len(t, got, 2)
	assert.Equal(t, SourceRetry{Ref: raw, Since: first, Attempts: 2}, got[0])
	assert.Equal(t, other, got[1].Ref)

	tr.ForgetSource(raw)
	tr.ForgetSource(raw)
	got = tr.SourceRetries()
	require.Len(t, got, 1)
	assert.Equal(t, other, got[0].Ref)
}

func TestTerminalAndDeleteAttempts(t *testing.T) {
	tr, clk := newTracker()
	refs := []models.MessageRef{{ChatID: 1, MessageID: 10}, {ChatID: 1, MessageID: 11}, {ChatID: 1, MessageID: 12}}
	for _, r := range refs {
		_, err := tr.Register(stm, r, raw)
		require.NoError(t, err)
	}

	_, _ = tr.Resolve(refs[1], models.StateAcknowledged)
	clk.Advance(time.Minute)
	_, _ = tr.Resolve(refs[0], models.StateCancelled)
	clk.Advance(time.Minute)

	got := tr.Terminal(clk.t)
	require.Len(t, got, 2)
	assert.Equal(t, refs[1], got[0].Ref)
	assert.Equal(t, refs[0], got[1].Ref)

	assert.Empty(t, tr.Terminal(clk.t.Add(-2*time.Minute)))

	assert.Equal(t, 1, tr.MarkDeleteFailed(refs[0]))
	assert.Equal(t, 2, tr.MarkDeleteFailed(refs[0]))
	assert.Equal(t, 0, tr.MarkDeleteFailed(models.MessageRef{ChatID: 9, MessageID: 9}))
	assert.Equal(t, 1, tr.Pending())
}

func TestTrackersAreIndependent(t *testing.T) {
	a, _ := newTracker()
	b, _ := newTracker()

	_, err := a.Register(stm, ref, raw)
	require.NoError(t, err)
	_, err = b.Register(stm, ref, raw)
	require.NoError(t, err)

	_, err = a.Resolve(ref, models.StateAcknowledged)
	require.NoError(t, err)
	got, _ := b.Get(ref)
	assert.Equal(t, models.StatePending, got.State)
}
