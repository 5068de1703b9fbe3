package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ n atomic.Int32 }

func (c *countingSweeper) Sweep(context.Context) { c.n.Add(1) }

func TestStart_RunsSweep(t *testing.T) {
	sw := &countingSweeper{}
	s, err := Start(context.Background(), sw, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	assert.Eventually(t, func() bool { return sw.n.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, s.Jobs(), 1)
}

func TestStart_SkipsAfterCancel(t *testing.T) {
	sw := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := Start(ctx, sw, 10*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, sw.n.Load())
}
