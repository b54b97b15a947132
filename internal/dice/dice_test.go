package dice

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollStaysInRange(t *testing.T) {
	roller := New(&Config{Seed: 42})
	for i := 0; i < 500; i++ {
		face := roller.Roll(20)
		assert.GreaterOrEqual(t, face, 1)
		assert.LessOrEqual(t, face, 20)
	}
}

func TestRollDefaultsToSixSides(t *testing.T) {
	roller := New(&Config{Seed: 7})
	for i := 0; i < 100; i++ {
		face := roller.Roll(0)
		assert.GreaterOrEqual(t, face, 1)
		assert.LessOrEqual(t, face, 6)
	}
}

func TestSeededRollersAgree(t *testing.T) {
	a := New(&Config{Seed: 99})
	b := New(&Config{Seed: 99})
	assert.Equal(t, a.RollMany(8, 20), b.RollMany(8, 20))
}

func TestRollManyCount(t *testing.T) {
	roller := New(nil)
	assert.Len(t, roller.RollMany(6, 6), 6)
	assert.Empty(t, roller.RollMany(-1, 6))
}

func TestConcurrentRolls(t *testing.T) {
	roller := New(&Config{Seed: 1})
	var wg sync.WaitGroup
	results := make(chan int, 400)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				results <- roller.Roll(6)
			}
		}()
	}
	wg.Wait()
	close(results)
	count := 0
	for face := range results {
		require.True(t, face >= 1 && face <= 6)
		count++
	}
	assert.Equal(t, 400, count)
}
