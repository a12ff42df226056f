package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emphasys/identity/internal/core/domain"
)

type memoryWriter struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
	err    error
	calls  int
}

func (w *memoryWriter) Record(_ context.Context, e domain.ActivityEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, e)
	return nil
}

func (w *memoryWriter) snapshot() []domain.ActivityEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.ActivityEvent(nil), w.events...)
}

func TestDispatcher_PreservesPerSubjectOrder(t *testing.T) {
	w := &memoryWriter{}
	d := NewDispatcher(4, w, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	types := []domain.ActivityType{
		domain.ActivityUserCreated,
		domain.ActivityUserUpdated,
		domain.ActivityUserDisabled,
		domain.ActivityUserEnabled,
		domain.ActivityUserDeleted,
	}
	for _, typ := range types {
		require.NoError(t, d.Record(ctx, domain.ActivityEvent{Type: typ, SubjectID: 42}))
		require.NoError(t, d.Record(ctx, domain.ActivityEvent{Type: typ, SubjectID: 7}))
	}

	require.Eventually(t, func() bool { return len(w.snapshot()) == 2*len(types) }, time.Second, 5*time.Millisecond)
	cancel()
	d.Wait()

	var got42 []domain.ActivityType
	for _, e := range w.snapshot() {
		if e.SubjectID == 42 {
			got42 = append(got42, e.Type)
		}
	}
	assert.Equal(t, types, got42)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, &memoryWriter{}, zerolog.Nop())

	// Workers are not started, so the single channel fills up.
	for i := 0; i < channelBuffer; i++ {
		require.NoError(t, d.Record(context.Background(), domain.ActivityEvent{SubjectID: int64(i + 1)}))
	}
	err := d.Record(context.Background(), domain.ActivityEvent{SubjectID: 1})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestDispatcher_WriteFailureDoesNotStopWorker(t *testing.T) {
	w := &memoryWriter{err: errors.New("mongo down")}
	d := NewDispatcher(1, w, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		d.Wait()
	}()
	d.Start(ctx)

	require.NoError(t, d.Record(ctx, domain.ActivityEvent{SubjectID: 1}))
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.calls == 1
	}, time.Second, 5*time.Millisecond)

	w.mu.Lock()
	w.err = nil
	w.mu.Unlock()

	require.NoError(t, d.Record(ctx, domain.ActivityEvent{SubjectID: 1, Type: domain.ActivityLogout}))
	require.Eventually(t, func() bool { return len(w.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.ActivityLogout, w.snapshot()[0].Type)
}

func TestShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &memoryWriter{}, zerolog.Nop())
	first := d.shardIndex("42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.shardIndex("42"))
	}
	assert.Less(t, first, 8)
}
