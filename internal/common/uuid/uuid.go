package uuid

import (
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_uuid.go github.com/KirkDiggler/hotdice/internal/common/uuid UUID

type UUID interface {
	NewUUID() string
	// NewCode returns a short human-typeable join code
	NewCode() string
}

// codeAlphabet drops characters that are easy to misread (0/O, 1/I/L)
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeLength is the length of lobby join codes
const CodeLength = 6

// DefaultUUID implements the UUID interface using the uuid package
type DefaultUUID struct{}

func New() *DefaultUUID {
	return &DefaultUUID{}
}

// NewUUID returns a new UUID
func (d *DefaultUUID) NewUUID() string {
	return uuid.New().String()
}

// NewCode derives a join code from the random bytes of a fresh UUID
func (d *DefaultUUID) NewCode() string {
	id := uuid.New()
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[int(id[i])%len(codeAlphabet)])
	}
	return b.String()
}
