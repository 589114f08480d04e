package usecase

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// storageNameAlphabet keeps names safe for any filesystem and any URL.
	storageNameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	// storageNameLength gives ~134 bits of entropy; by the birthday bound a
	// collision stays negligible far past any plausible attachment volume.
	storageNameLength = 26
)

// NameGenerator produces opaque storage names: a fixed-length random token
// plus the validated extension. Names are never derived from client input.
type NameGenerator struct {
	generate func(alphabet string, size int) (string, error)
}

// NewNameGenerator creates a generator backed by a cryptographic random
// source.
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{generate: gonanoid.Generate}
}

// NewNameGeneratorWithSource creates a generator with an injected token
// source for deterministic tests.
func NewNameGeneratorWithSource(generate func(alphabet string, size int) (string, error)) *NameGenerator {
	return &NameGenerator{generate: generate}
}

// Generate returns a fresh storage name carrying the given validated
// extension, e.g. "k3jq08x1v7w2m5ta9rcyd4npz6.png".
func (g *NameGenerator) Generate(ext string) (string, error) {
	token, err := g.generate(storageNameAlphabet, storageNameLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate storage name: %w", err)
	}
	if ext == "" {
		return token, nil
	}
	return token + "." + ext, nil
}
