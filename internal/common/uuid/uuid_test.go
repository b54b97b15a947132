package uuid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCode(t *testing.T) {
	gen := New()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := gen.NewCode()
		assert.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected rune %q", c)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 40)
}

func TestNewUUID(t *testing.T) {
	gen := New()
	assert.NotEqual(t, gen.NewUUID(), gen.NewUUID())
}
