package viewmodel_test

import (
	"sync/atomic"
	"testing"
	"time"

	"inventario/internal/viewmodel"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_RunsLatestOnly(t *testing.T) {
	d := viewmodel.NewDebouncer(20 * time.Millisecond)
	var last atomic.Int64
	var runs atomic.Int64

	for i := int64(1); i <= 5; i++ {
		i := i
		d.Trigger(func() {
			runs.Add(1)
			last.Store(i)
		})
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), runs.Load())
	assert.Equal(t, int64(5), last.Load())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := viewmodel.NewDebouncer(10 * time.Millisecond)
	var ran atomic.Bool

	d.Trigger(func() { ran.Store(true) })
	d.Cancel()
	time.Sleep(40 * time.Millisecond)
	assert.False(t, ran.Load())

	d.Trigger(func() { ran.Store(true) })
	assert.Eventually(t, ran.Load, time.Second, 5*time.Millisecond)
}

func TestDebouncer_StopIgnoresLaterTriggers(t *testing.T) {
	d := viewmodel.NewDebouncer(10 * time.Millisecond)
	var ran atomic.Bool

	d.Stop()
	d.Trigger(func() { ran.Store(true) })
	time.Sleep(40 * time.Millisecond)
	assert.False(t, ran.Load())
}
