package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maclenn77/ticha/models"
)

func resultSet(engine string) *models.ResultSet {
	return &models.ResultSet{
		Records: []models.ManuscriptRecord{{TichaID: "Te675"}},
		Engine:  engine,
	}
}

func TestKeySeparatesEngines(t *testing.T) {
	const url = "https://ticha.haverford.edu/en/texts/handwritten/"
	assert.NotEqual(t, Key(url, "browser"), Key(url, "http"))
	assert.Equal(t, Key(url, "browser"), Key(url, "browser"))
}

func TestGetSetRoundTrip(t *testing.T) {
	c := New(4, time.Hour)
	key := Key("https://example.org", "browser")

	_, ok := c.Get(key, time.Minute)
	assert.False(t, ok, "empty cache never hits")

	want := resultSet("browser")
	c.Set(key, want)

	got, ok := c.Get(key, time.Minute)
	require.True(t, ok)
	assert.Same(t, want, got)
}

func TestGetZeroMaxAgeSkipsLookup(t *testing.T) {
	c := New(4, time.Hour)
	key := Key("https://example.org", "browser")
	c.Set(key, resultSet("browser"))

	_, ok := c.Get(key, 0)
	assert.False(t, ok)
}

func TestGetExpiredEntryMisses(t *testing.T) {
	c := New(4, time.Hour)
	key := Key("https://example.org", "browser")
	c.Set(key, resultSet("browser"))

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get(key, 10*time.Millisecond)
	assert.False(t, ok, "entries older than maxAge never hit")
}

func TestSetEvictsAtCapacity(t *testing.T) {
	c := New(2, time.Hour)
	c.Set(Key("https://a.example", "browser"), resultSet("browser"))
	c.Set(Key("https://b.example", "browser"), resultSet("browser"))
	c.Set(Key("https://c.example", "browser"), resultSet("browser"))

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Len(t, c.store, 2)
}
