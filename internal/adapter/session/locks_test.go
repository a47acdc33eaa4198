package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLocks_ReleasesEntries(t *testing.T) {
	k := newKeyLocks()

	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.Len())

	unlockA()
	unlockB()
	assert.Equal(t, 0, k.Len())
}

func TestKeyLocks_SerializesSameKey(t *testing.T) {
	k := newKeyLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, k.Len())
}
