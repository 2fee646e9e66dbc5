package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padron/internal/identity/models"
)

// tickingClock returns a clock that advances one minute per call.
func tickingClock() func() time.Time {
	t := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func record(id, first string) models.PersonRecord {
	return models.PersonRecord{ID: id, FirstNames: first, FullName: first}
}

func ids(entries []models.HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Record.ID
	}
	return out
}

func TestCache_EmptyByDefault(t *testing.T) {
	c := New()

	assert.Zero(t, c.Len())
	assert.Empty(t, c.List())
	assert.False(t, c.Has("72345678"))
	_, ok := c.Get("72345678")
	assert.False(t, ok)
}

func TestCache_MostRecentFirst(t *testing.T) {
	c := New(WithClock(tickingClock()))

	require.True(t, c.RecordSuccess("11111111", record("11111111", "ANA")))
	require.True(t, c.RecordSuccess("22222222", record("22222222", "LUIS")))
	require.True(t, c.RecordSuccess("33333333", record("33333333", "ROSA")))

	entries := c.List()
	assert.Equal(t, []string{"33333333", "22222222", "11111111"}, ids(entries))
	assert.True(t, entries[0].ConsultedAt.After(entries[1].ConsultedAt))
	assert.True(t, entries[1].ConsultedAt.After(entries[2].ConsultedAt))
}

func TestCache_RecordSuccessIsIdempotent(t *testing.T) {
	c := New(WithClock(tickingClock()))
	require.True(t, c.RecordSuccess("11111111", record("11111111", "ANA")))
	require.True(t, c.RecordSuccess("22222222", record("22222222", "LUIS")))
	before := c.List()

	added := c.RecordSuccess("11111111", record("11111111", "ANA MARIA"))

	assert.False(t, added)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, before, c.List(), "existing entry must not move, change or be re-timestamped")
	got, ok := c.Get("11111111")
	require.True(t, ok)
	assert.Equal(t, "ANA", got.FirstNames)
}

func TestCache_ListIsSnapshot(t *testing.T) {
	c := New()
	c.RecordSuccess("11111111", record("11111111", "ANA"))

	snapshot := c.List()
	c.RecordSuccess("22222222", record("22222222", "LUIS"))

	assert.Len(t, snapshot, 1)
	assert.Len(t, c.List(), 2)
	assert.Equal(t, c.List(), c.List(), "listing is restartable")
}

func TestCache_CapacityEvictsOldest(t *testing.T) {
	c := New(WithCapacity(2))

	c.RecordSuccess("11111111", record("11111111", "ANA"))
	c.RecordSuccess("22222222", record("22222222", "LUIS"))
	c.RecordSuccess("33333333", record("33333333", "ROSA"))

	assert.Equal(t, []string{"33333333", "22222222"}, ids(c.List()))
	assert.False(t, c.Has("11111111"))

	// Re-recording a present id never evicts anything.
	assert.False(t, c.RecordSuccess("22222222", record("22222222", "LUIS")))
	assert.Equal(t, []string{"33333333", "22222222"}, ids(c.List()))

	// An evicted id can be recorded again as a new entry.
	assert.True(t, c.RecordSuccess("11111111", record("11111111", "ANA")))
	assert.Equal(t, []string{"11111111", "33333333"}, ids(c.List()))
}

func TestCache_NonPositiveCapacityIsUnbounded(t *testing.T) {
	c := New(WithCapacity(0), WithCapacity(-3))
	for i := range 100 {
		id := fmt.Sprintf("%08d", i)
		c.RecordSuccess(id, record(id, "X"))
	}
	assert.Equal(t, 100, c.Len())
}

func TestCache_ConcurrentRecordSameID(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.RecordSuccess("72345678", record("72345678", "CARLOS")) {
				mu.Lock()
				added++
				mu.Unlock()
			}
			_ = c.List()
			_ = c.Has("72345678")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, c.Len())
}
