// Package tracker keeps the in-memory registry of posted reminders and
// enforces their Pending -> Acknowledged|Cancelled lifecycle.
package tracker

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"telegram-reminder-bot/internal/models"
)

var (
	ErrNotFound       = errors.New("reminder not registered")
	ErrInvalidOutcome = errors.New("outcome must be acknowledged or cancelled")
)

type DuplicateRefError struct {
	Ref models.MessageRef
}

func (e *DuplicateRefError) Error() string {
	return fmt.Sprintf("reminder for chat %d msg %d already registered", e.Ref.ChatID, e.Ref.MessageID)
}

// AlreadyResolvedError is returned by Resolve on an entry that left Pending.
// Duplicate button presses end up here.
type AlreadyResolvedError struct {
	Ref   models.MessageRef
	State models.State
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("reminder for chat %d msg %d already %s", e.Ref.ChatID, e.Ref.MessageID, e.State)
}

type NotTerminalError struct {
	Ref models.MessageRef
}

func (e *NotTerminalError) Error() string {
	return fmt.Sprintf("reminder for chat %d msg %d is still pending", e.Ref.ChatID, e.Ref.MessageID)
}

// Tracker is safe for concurrent use. Create one per process with New and
// pass it to whoever needs it.
type Tracker struct {
	mu      sync.Mutex
	entries map[models.MessageRef]*models.Entry
	sources map[models.MessageRef]bool // raw messages already claimed for deletion
	holding map[models.MessageRef]bool // raw messages whose reminders are still being posted
	kept    map[models.MessageRef]bool // raw messages that must outlive their reminders
	retries map[models.MessageRef]*SourceRetry
	now     func() time.Time
	newID   func() string
}

type Option func(*Tracker)

// WithClock overrides the time source used for CreatedAt/ResolvedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDs overrides entry id generation.
func WithIDs(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		entries: make(map[models.MessageRef]*models.Entry),
		sources: make(map[models.MessageRef]bool),
		holding: make(map[models.MessageRef]bool),
		kept:    make(map[models.MessageRef]bool),
		retries: make(map[models.MessageRef]*SourceRetry),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Register adds a Pending entry for the reminder posted as ref. source is
// the user's raw message the reminder came from.
func (t *Tracker) Register(st models.Statement, ref, source models.MessageRef) (models.Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[ref]; ok {
		return models.Entry{}, &DuplicateRefError{Ref: ref}
	}
	e := &models.Entry{
		ID:        t.newID(),
		Statement: st,
		Ref:       ref,
		Source:    source,
		State:     models.StatePending,
		CreatedAt: t.now(),
	}
	t.entries[ref] = e
	return *e, nil
}

// Resolve moves a Pending entry to outcome. Exactly one of any number of
// concurrent calls for the same ref succeeds.
func (t *Tracker) Resolve(ref models.MessageRef, outcome models.State) (models.Entry, error) {
	if !outcome.Terminal() {
		return models.Entry{}, ErrInvalidOutcome
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ref]
	if !ok {
		return models.Entry{}, ErrNotFound
	}
	if e.State != models.StatePending {
		return *e, &AlreadyResolvedError{Ref: ref, State: e.State}
	}
	e.State = outcome
	e.ResolvedAt = t.now()
	return *e, nil
}

// Evict drops a terminal entry once its chat message is gone.
func (t *Tracker) Evict(ref models.MessageRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ref]
	if !ok {
		return ErrNotFound
	}
	if !e.State.Terminal() {
		return &NotTerminalError{Ref: ref}
	}
	delete(t.entries, ref)
	if !t.hasSourceLocked(e.Source) {
		delete(t.sources, e.Source)
		delete(t.kept, e.Source)
	}
	return nil
}

// ClaimSource reports true the first time it is called for a raw message,
// so the message is deleted once even when it produced several reminders.
func (t *Tracker) ClaimSource(source models.MessageRef) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sources[source] || t.holding[source] || t.kept[source] {
		return false
	}
	t.sources[source] = true
	return true
}

// HoldSource blocks ClaimSource for source until ReleaseSource, so a
// reminder resolved while its siblings are still being posted cannot take
// the raw message with it.
func (t *Tracker) HoldSource(source models.MessageRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.holding[source] = true
}

// ReleaseSource ends the hold. With keep set, source is never claimed while
// any reminder from it is tracked: some of its reminders were not posted
// and the raw message is their only record.
func (t *Tracker) ReleaseSource(source models.MessageRef, keep bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.holding, source)
	if keep && t.hasSourceLocked(source) {
		t.kept[source] = true
	}
}

// SourceRetry is a claimed raw message whose deletion failed.
type SourceRetry struct {
	Ref      models.MessageRef
	Since    time.Time
	Attempts int
}

// RetrySource records a failed delete of a claimed raw message and returns
// the attempt count.
func (t *Tracker) RetrySource(source models.MessageRef) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.retries[source]
	if !ok {
		r = &SourceRetry{Ref: source, Since: t.now()}
		t.retries[source] = r
	}
	r.Attempts++
	return r.Attempts
}

// SourceRetries lists raw messages waiting for another delete, oldest first.
func (t *Tracker) SourceRetries() []SourceRetry {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := make([]SourceRetry, 0, len(t.retries))
	for _, r := range t.retries {
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Since.Before(res[j].Since) })
	return res
}

func (t *Tracker) ForgetSource(source models.MessageRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.retries, source)
}

// MarkDeleteFailed records a failed attempt to delete a terminal entry's
// message and returns the attempt count.
func (t *Tracker) MarkDeleteFailed(ref models.MessageRef) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ref]
	if !ok {
		return 0
	}
	e.DeleteAttempts++
	return e.DeleteAttempts
}

func (t *Tracker) Get(ref models.MessageRef) (models.Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ref]
	if !ok {
		return models.Entry{}, false
	}
	return *e, true
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Pending counts entries still waiting for a button press.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if e.State == models.StatePending {
			n++
		}
	}
	return n
}

// Terminal lists resolved entries that were resolved before cutoff, oldest
// first. These are entries whose message deletion has not been confirmed.
func (t *Tracker) Terminal(cutoff time.Time) []models.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res []models.Entry
	for _, e := range t.entries {
		if e.State.Terminal() && e.ResolvedAt.Before(cutoff) {
			res = append(res, *e)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ResolvedAt.Before(res[j].ResolvedAt) })
	return res
}

func (t *Tracker) hasSourceLocked(source models.MessageRef) bool {
	for _, e := range t.entries {
		if e.Source == source {
			return true
		}
	}
	return false
}
