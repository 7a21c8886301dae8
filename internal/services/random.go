package services

import "math/rand"

// DeletionKeyLength is the number of letters in a generated deletion key.
const DeletionKeyLength = 16

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Randomizer supplies the randomness PoemService needs. Tests inject a
// deterministic implementation.
type Randomizer interface {
	// Intn returns a value in [0, n). n is always > 0.
	Intn(n int) int
	// Letters returns n characters drawn uniformly from [A-Za-z].
	Letters(n int) string
}

// DefaultRandomizer draws from the auto-seeded math/rand top-level generator, which
// is safe for concurrent use.
type DefaultRandomizer struct{}

// Intn implements Randomizer.
func (DefaultRandomizer) Intn(n int) int { return rand.Intn(n) }

// Letters implements Randomizer.
func (DefaultRandomizer) Letters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = keyAlphabet[rand.Intn(len(keyAlphabet))]
	}
	return string(b)
}
