package orders

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/angelmondragon/retailpos-backend/pkg/config"
)

const (
	// CodeLength is the number of characters in a human-readable order code.
	CodeLength = 6

	lettersAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	alphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeGenerator draws order codes uniformly from its alphabet.
type CodeGenerator struct {
	alphabet string
	random   io.Reader
}

// NewCodeGenerator returns a generator for the configured charset name.
func NewCodeGenerator(charset string) (*CodeGenerator, error) {
	switch charset {
	case "", config.OrderCodeCharsetLetters:
		return &CodeGenerator{alphabet: lettersAlphabet, random: rand.Reader}, nil
	case config.OrderCodeCharsetAlphanumeric:
		return &CodeGenerator{alphabet: alphanumericAlphabet, random: rand.Reader}, nil
	default:
		return nil, fmt.Errorf("unknown order code charset %q", charset)
	}
}

// Generate returns a fresh CodeLength code.
func (g *CodeGenerator) Generate() (string, error) {
	max := big.NewInt(int64(len(g.alphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(g.random, max)
		if err != nil {
			return "", fmt.Errorf("generate order code: %w", err)
		}
		buf[i] = g.alphabet[n.Int64()]
	}
	return string(buf), nil
}
