package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobStartStop(t *testing.T) {
	var ticks atomic.Int32
	j := New("test", time.Second, func() { ticks.Add(1) })

	assert.False(t, j.Running())

	j.Start()
	j.Start() // повторный Start — no-op
	assert.True(t, j.Running())

	time.Sleep(1500 * time.Millisecond)
	j.Stop()
	j.Stop()
	assert.False(t, j.Running())

	got := ticks.Load()
	assert.GreaterOrEqual(t, got, int32(1))

	// после Stop тиков не бывает
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, got, ticks.Load())
}

func TestJobRestart(t *testing.T) {
	var ticks atomic.Int32
	j := New("test", time.Second, func() { ticks.Add(1) })

	j.Start()
	j.Stop()
	j.Start()
	defer j.Stop()

	time.Sleep(1500 * time.Millisecond)
	assert.GreaterOrEqual(t, ticks.Load(), int32(1))
}
