package cache_test

import (
	"testing"
	"time"

	"github.com/amonks/sixdegrees/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMissesWhenEmpty(t *testing.T) {
	c := open(t)

	_, err := c.Get("artist_albums 4Uc5xV5lJuSvLtrLdxGojT offset=0")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestPutThenGet(t *testing.T) {
	c := open(t)

	require.NoError(t, c.Put("artist 2YZyLoL8N0Wb9xBt1NhZWg", []byte(`{"name":"Kendrick Lamar"}`)))

	payload, err := c.Get("artist 2YZyLoL8N0Wb9xBt1NhZWg")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"name":"Kendrick Lamar"}`), payload)
}

func TestSameKeySameEntry(t *testing.T) {
	c := open(t)

	require.NoError(t, c.Put("search drake", []byte(`one`)))
	require.NoError(t, c.Put("search drake", []byte(`two`)))

	payload, err := c.Get("search drake")
	require.NoError(t, err)
	assert.Equal(t, []byte(`two`), payload)

	_, err = c.Get("search DRAKE")
	assert.ErrorIs(t, err, cache.ErrMiss, "descriptors are byte-exact; normalization happens upstream")
}

func TestGetHonorsExpiry(t *testing.T) {
	c := open(t)

	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	c.SetClock(func() time.Time { return now })

	require.NoError(t, c.Put("album_tracks 748dZDqSZy6aPXKcI9H80u offset=0", []byte(`{"items":[]}`)))

	now = t0.Add(604799 * time.Second)
	payload, err := c.Get("album_tracks 748dZDqSZy6aPXKcI9H80u offset=0")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"items":[]}`), payload)

	now = t0.Add(604801 * time.Second)
	_, err = c.Get("album_tracks 748dZDqSZy6aPXKcI9H80u offset=0")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestRefreshRestartsExpiry(t *testing.T) {
	c := open(t)

	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	c.SetClock(func() time.Time { return now })

	require.NoError(t, c.Put("artist 3TVXtAsR1Inumwj472S9r4", []byte(`stale`)))

	now = t0.Add(8 * 24 * time.Hour)
	_, err := c.Get("artist 3TVXtAsR1Inumwj472S9r4")
	require.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, c.Put("artist 3TVXtAsR1Inumwj472S9r4", []byte(`fresh`)))

	payload, err := c.Get("artist 3TVXtAsR1Inumwj472S9r4")
	require.NoError(t, err)
	assert.Equal(t, []byte(`fresh`), payload)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c := open(t)

	require.NoError(t, c.PutRaw("artist 1RyvyyTE3xzB2ZywiAwp0i", []byte("}{ not json")))

	_, err := c.Get("artist 1RyvyyTE3xzB2ZywiAwp0i")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, c.Put("artist 1RyvyyTE3xzB2ZywiAwp0i", []byte(`recovered`)))
	payload, err := c.Get("artist 1RyvyyTE3xzB2ZywiAwp0i")
	require.NoError(t, err)
	assert.Equal(t, []byte(`recovered`), payload)
}
