package dice

import (
	"math/rand"
	"sync"
	"time"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_roller.go github.com/KirkDiggler/hotdice/internal/dice Roller

// Roller provides dice rolling functionality
type Roller interface {
	// Roll returns a single face in [1, sides]
	Roll(sides int) int

	// RollMany returns count faces in [1, sides]
	RollMany(count, sides int) []int
}

// Config for dice roller
type Config struct {
	// Optional seed for testing
	Seed int64
}

// randomRoller is safe for concurrent use; rand.Rand is not, so every draw takes the lock
type randomRoller struct {
	mu     sync.Mutex
	random *rand.Rand
}

// New creates a new dice roller
func New(cfg *Config) Roller {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	return &randomRoller{
		random: rand.New(rand.NewSource(seed)),
	}
}

// Roll generates a random dice roll with the specified number of sides
func (r *randomRoller) Roll(sides int) int {
	if sides < 1 {
		sides = 6 // Default to 6-sided die
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.random.Intn(sides) + 1
}

// RollMany rolls count dice under a single lock so the faces come from one contiguous draw
func (r *randomRoller) RollMany(count, sides int) []int {
	if sides < 1 {
		sides = 6
	}
	if count < 0 {
		count = 0
	}
	faces := make([]int, count)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range faces {
		faces[i] = r.random.Intn(sides) + 1
	}
	return faces
}
