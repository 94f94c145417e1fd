package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, ttl time.Duration) *SessionRegistry {
	t.Helper()
	log := testLogger()
	m := testMetrics()
	factory := func() *Dashboard {
		orch := NewOrchestrator(NewBatchStrategy(&fakeClient{}, log, m), log, m)
		return NewDashboard(NewPlanner(0, 0), orch, log, m, 0, 0)
	}
	return NewSessionRegistry(factory, ttl, log, m)
}

func TestSessionRegistryCreateAndGet(t *testing.T) {
	reg := newTestRegistry(t, time.Minute)

	id, dash := reg.Create()
	require.NotEmpty(t, id)
	require.NotNil(t, dash)

	got, ok := reg.Get(id)
	require.True(t, ok)
	assert.Same(t, dash, got)
	assert.Equal(t, 1, reg.Len())
}

func TestSessionRegistryUnknownID(t *testing.T) {
	reg := newTestRegistry(t, time.Minute)

	dash, ok := reg.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, dash)
}

func TestSessionRegistrySessionsAreIndependent(t *testing.T) {
	reg := newTestRegistry(t, time.Minute)

	idA, dashA := reg.Create()
	idB, dashB := reg.Create()

	assert.NotEqual(t, idA, idB)
	assert.NotSame(t, dashA, dashB)
	assert.Equal(t, 2, reg.Len())
}

func TestSessionRegistryPrunesIdleSessions(t *testing.T) {
	reg := newTestRegistry(t, 20*time.Millisecond)

	id, _ := reg.Create()
	time.Sleep(40 * time.Millisecond)

	// any access prunes expired entries first
	_, ok := reg.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestSessionRegistryAccessKeepsSessionAlive(t *testing.T) {
	reg := newTestRegistry(t, 50*time.Millisecond)

	id, _ := reg.Create()
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		_, ok := reg.Get(id)
		require.True(t, ok, "session expired despite activity")
	}
}
