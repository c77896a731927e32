package cache

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/street-pursuit/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "sim:snapshot:abc", Key("abc"))
}

func TestMemoryCache_TTLAndMetrics(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Get(ctx, "s")
	assert.True(t, IsCacheMiss(err))
	assert.ErrorIs(t, c.Put(ctx, "", nil), ErrInvalidKey)

	require.NoError(t, c.Put(ctx, "s", []byte("snap")))
	data, err := c.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []byte("snap"), data)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "s")
	assert.True(t, IsCacheMiss(err), "Запись истекла")

	m := c.GetMetrics()
	assert.EqualValues(t, 3, m.TotalRequests)
	assert.EqualValues(t, 1, m.CacheHits)
	assert.EqualValues(t, 2, m.CacheMisses)
	assert.InDelta(t, 1.0/3, m.HitRatio, 1e-9)
	assert.EqualValues(t, 1, m.Writes)

	require.NoError(t, c.Delete(ctx, "s"))
	require.NoError(t, c.Close())
}

func TestMirror_WritesLatestSnapshot(t *testing.T) {
	c := NewMemoryCache(0)
	m := NewMirror(c, "run")

	s := sim.NewSession(sim.DefaultOptions())
	s.Start()
	hook := m.Hook()
	for i := 0; i < 5; i++ {
		s.Advance(100)
		hook(sim.Frame{Tick: s.Tick(), Snapshot: s.Snapshot()})
	}
	m.Close()

	snap, err := Load(context.Background(), c, "run")
	require.NoError(t, err)
	assert.Equal(t, s.Tick(), snap.Tick, "В кеше последний снапшот")
	assert.Equal(t, sim.ModePlaying, snap.Mode)

	_, err = Load(context.Background(), c, "missing")
	assert.True(t, IsCacheMiss(err))
}
