package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitpulse/internal/domain/models"
	"digitpulse/internal/service/tickstore"
)

// fakeStream hands out fresh channels per Read and can kill the current pair
// the way the real client does: close both after an optional final error.
type fakeStream struct {
	mu            sync.Mutex
	reads         int
	reconnects    int
	failReconnect int
	tkCh          chan *models.TickSample
	errCh         chan error
}

func (s *fakeStream) Connect(context.Context) error   { return nil }
func (s *fakeStream) Subscribe(context.Context) error { return nil }
func (s *fakeStream) Close() error                    { return nil }
func (s *fakeStream) IsConnected() bool               { return true }

func (s *fakeStream) Read(context.Context) (<-chan *models.TickSample, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	s.tkCh = make(chan *models.TickSample, 16)
	s.errCh = make(chan error, 1)
	return s.tkCh, s.errCh
}

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	if s.failReconnect > 0 {
		s.failReconnect--
		return errors.New("dial refused")
	}
	return nil
}

func (s *fakeStream) push(t *models.TickSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tkCh <- t
}

func (s *fakeStream) dropConnection(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errCh <- err
	}
	close(s.errCh)
	close(s.tkCh)
}

func (s *fakeStream) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *fakeStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func TestCollectorReattachesAfterStreamDeath(t *testing.T) {
	store := tickstore.NewStore(100)
	stream := &fakeStream{failReconnect: 1}
	c := NewTickCollector(stream, NewTickProcessor(store, nil, nopMetrics{}), nopMetrics{}, nil)
	c.reconnectBackoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))

	stream.push(&models.TickSample{Symbol: "R_100", LastDigit: 4})
	waitFor(t, func() bool { return store.Size("R_100") == 1 }, "tick not processed")

	stream.dropConnection(errors.New("peer went away"))

	// the first reconnect attempt fails; the collector must retry until the
	// stream is live and then resume on the fresh channels
	waitFor(t, func() bool { return stream.readCount() >= 2 }, "stream never reattached")
	assert.GreaterOrEqual(t, stream.reconnectCount(), 2)

	stream.push(&models.TickSample{Symbol: "R_100", LastDigit: 6})
	waitFor(t, func() bool { return store.Size("R_100") == 2 }, "ticks not flowing after reattach")
}

func TestCollectorStopsOnCancel(t *testing.T) {
	store := tickstore.NewStore(100)
	stream := &fakeStream{failReconnect: 1 << 20} // reconnect never succeeds
	c := NewTickCollector(stream, NewTickProcessor(store, nil, nopMetrics{}), nopMetrics{}, nil)
	c.reconnectBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))

	stream.dropConnection(nil)
	waitFor(t, func() bool { return stream.reconnectCount() >= 1 }, "reconnect loop never ran")

	cancel()
	time.Sleep(20 * time.Millisecond)
	before := stream.reconnectCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, stream.reconnectCount())
}
