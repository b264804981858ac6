package idgen

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"urlshort/internal/apperr"
	"urlshort/internal/base62"
)

// ExistenceChecker is the narrow store capability the hash generator
// and the façade need: does a short code already exist.
type ExistenceChecker interface {
	Exists(ctx context.Context, shortCode string) (bool, error)
}

// HashGeneratorConfig configures the collision-retry budget.
type HashGeneratorConfig struct {
	MaxRetries int
}

func DefaultHashGeneratorConfig() HashGeneratorConfig {
	return HashGeneratorConfig{MaxRetries: 5}
}

// HashGenerator produces short codes from URL content (deterministic) or
// from entropy (random).
type HashGenerator struct {
	checker ExistenceChecker
	cfg     HashGeneratorConfig
}

func NewHashGenerator(checker ExistenceChecker, cfg HashGeneratorConfig) *HashGenerator {
	return &HashGenerator{checker: checker, cfg: cfg}
}

// GenerateDeterministic derives a code from the long URL content,
// retrying with an incrementing nonce on collision.
func (g *HashGenerator) GenerateDeterministic(ctx context.Context, longURL string, length int) (string, int, error) {
	return g.generate(ctx, []byte(longURL), length)
}

// GenerateRandom derives a code from fresh entropy.
func (g *HashGenerator) GenerateRandom(ctx context.Context, length int) (string, int, error) {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return "", 0, apperr.HashUnavailable(fmt.Errorf("read entropy: %w", err))
	}
	return g.generate(ctx, seed, length)
}

func (g *HashGenerator) generate(ctx context.Context, seed []byte, length int) (string, int, error) {
	if length < 7 {
		return "", 0, apperr.ValidationError("hash id length must be >= 7")
	}

	var nonce uint64
	attempts := 0
	for attempts < g.cfg.MaxRetries {
		attempts++

		h := sha256.New()
		h.Write(seed)
		var nb [8]byte
		binary.BigEndian.PutUint64(nb[:], nonce)
		h.Write(nb[:])
		sum := h.Sum(nil)

		n := int64(binary.BigEndian.Uint64(sum[:8]) >> 1) // clear sign bit
		code := fitLength(base62.Encode(n), length)

		if g.checker == nil {
			return code, attempts, nil
		}
		exists, err := g.checker.Exists(ctx, code)
		if err != nil {
			return "", attempts, apperr.HashUnavailable(err)
		}
		if !exists {
			return code, attempts, nil
		}
		nonce++
	}
	return "", attempts, apperr.HashExhausted()
}

// fitLength truncates or left-pads s to exactly length characters.
func fitLength(s string, length int) string {
	if len(s) == length {
		return s
	}
	if len(s) > length {
		return s[:length]
	}
	pad := make([]byte, length-len(s))
	for i := range pad {
		pad[i] = 'a'
	}
	return string(pad) + s
}
