// Package ident generates the short identifiers used across the service:
// human-readable room codes and stable player ids.
package ident

import (
	"crypto/rand"
	"fmt"
	mathrand "math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

const roomAlphabet = "0123456789ABCDEF"

// RandSource allows deterministic id generation in tests.
type RandSource interface {
	Intn(n int) int
}

// Generator produces identifiers with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil RandSource uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// NewRoomID returns a 6-character uppercase hex room code, short enough to
// read out across a table.
func NewRoomID() string {
	return NewGenerator(nil).NewRoomID()
}

// NewRoomID returns a room code from the generator's randomness.
func (g *Generator) NewRoomID() string {
	buf := make([]byte, 6)
	if g.randSource != nil {
		for i := range buf {
			buf[i] = roomAlphabet[g.randSource.Intn(len(roomAlphabet))]
		}
		return string(buf)
	}
	raw := make([]byte, 3)
	if _, err := rand.Read(raw); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	return strings.ToUpper(fmt.Sprintf("%x", raw))
}

// NewPlayerID returns a fresh 12-character lowercase hex player id. Devices
// that supply their own identity bypass this and key the player directly.
func NewPlayerID() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:12]
}

// NewRand returns a math/rand/v2 generator whose sequence depends only on
// seed, so a pinned seed in the config replays the same generated names.
// PCG wants two 64-bit words; splitmix64 stretches the single seed across
// both.
func NewRand(seed int64) *mathrand.Rand {
	u := uint64(seed)
	const goldenRatio64 = 0x9e3779b97f4a7c15
	return mathrand.New(mathrand.NewPCG(splitmix64(u), splitmix64(u+goldenRatio64)))
}

func splitmix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// ValidateRoomID checks the 6-character uppercase hex shape.
func ValidateRoomID(id string) error {
	if len(id) != 6 {
		return fmt.Errorf("room id must be exactly 6 characters, got %d", len(id))
	}
	for i, c := range id {
		if !strings.ContainsRune(roomAlphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
