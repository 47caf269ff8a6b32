package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type id int64

func TestTable_InsertDistinct(t *testing.T) {
	tbl := NewTable[id, string]()

	seen := make(map[id]bool)
	for i := 0; i < 100; i++ {
		k := tbl.Insert("f")
		assert.GreaterOrEqual(t, int64(k), int64(0))
		assert.False(t, seen[k], "handle %d reused", k)
		seen[k] = true
	}
	assert.Equal(t, 100, tbl.Len())
}

func TestTable_RemoveNeverReused(t *testing.T) {
	tbl := NewTable[id, int]()

	a := tbl.Insert(1)
	v, ok := tbl.Remove(a)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = tbl.Get(a)
	assert.False(t, ok)
	_, ok = tbl.Remove(a)
	assert.False(t, ok)

	b := tbl.Insert(2)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_Drain(t *testing.T) {
	tbl := NewTable[id, int]()
	tbl.Insert(1)
	tbl.Insert(2)

	out := tbl.Drain()
	assert.ElementsMatch(t, []int{1, 2}, out)
	assert.Equal(t, 0, tbl.Len())

	// Counter keeps running after a drain.
	assert.Equal(t, id(2), tbl.Insert(3))
}

func TestTable_ConcurrentInsert(t *testing.T) {
	tbl := NewTable[id, int]()

	const workers, perWorker = 8, 250
	var (
		mu   sync.Mutex
		seen = make(map[id]bool)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				k := tbl.Insert(i)
				mu.Lock()
				seen[k] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, tbl.Len())
}
