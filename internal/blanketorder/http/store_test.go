package blanketorderhttp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/blanketorder/internal/blanketorder"
	"github.com/odyssey-erp/blanketorder/internal/form"
)

func newBareForm(t *testing.T) *form.Form {
	t.Helper()
	meta, err := blanketorder.Meta()
	require.NoError(t, err)
	return form.New(form.Options{Meta: meta, Name: "BO-1"})
}

func TestStoreSweepsIdleSessions(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	g := &gauge{}
	s := NewStore(10*time.Minute, g)
	s.now = func() time.Time { return now }

	idle := newBareForm(t)
	active := newBareForm(t)
	idleID := s.Put(idle)
	activeID := s.Put(active)
	assert.Equal(t, 2.0, g.v)

	now = now.Add(8 * time.Minute)
	_, err := s.Get(activeID)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1.0, g.v)

	_, err = s.Get(idleID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, idle.Do(context.Background(), func(*form.Form) {}), form.ErrClosed)

	s.CloseAll()
	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, active.Do(context.Background(), func(*form.Form) {}), form.ErrClosed)
}

func TestStoreRunClosesOnCancel(t *testing.T) {
	s := NewStore(time.Minute, nil)
	f := newBareForm(t)
	s.Put(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("store did not stop")
	}
	assert.Equal(t, 0, s.Len())
}

func TestStoreDeleteUnknown(t *testing.T) {
	s := NewStore(time.Minute, nil)
	assert.ErrorIs(t, s.Delete("missing"), ErrSessionNotFound)
}
