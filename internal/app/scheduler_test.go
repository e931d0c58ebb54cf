package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshDirectory(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestScheduler_RefreshesUntilStopped(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewScheduler(refresher, 10*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return refresher.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := refresher.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, refresher.calls.Load())

	// повторная остановка безопасна
	s.Stop()
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("store unavailable")}
	s := NewScheduler(refresher, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
