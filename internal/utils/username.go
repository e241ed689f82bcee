package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var adjectives = []string{
	"swift", "brave", "clever", "bold", "mighty",
	"silent", "wild", "golden", "iron", "silver",
	"bright", "storm", "shadow", "solar", "lunar",
	"rapid", "steady", "cosmic", "sharp", "lucky",
}

var nouns = []string{
	"falcon", "tiger", "builder", "wolf", "eagle",
	"hacker", "lion", "hawk", "phoenix", "panther",
	"fox", "raven", "coder", "shark", "lynx",
	"maker", "writer", "jaguar", "orca", "leopard",
}

// ErrUsernameExhausted is returned when every attempt produced a taken username
var ErrUsernameExhausted = errors.New("could not generate a unique username")

var nonUsername = regexp.MustCompile(`[^a-z0-9-]+`)

func randIndex(n int) (int, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(i.Int64()), nil
}

// GenerateUsername creates a random username. When base is non-empty it is
// sanitized and used as the prefix, otherwise an adjective-noun pair is used.
// A random 4-digit suffix is always appended.
func GenerateUsername(base string) (string, error) {
	prefix := nonUsername.ReplaceAllString(strings.ToLower(strings.TrimSpace(base)), "")
	if len(prefix) > 20 {
		prefix = prefix[:20]
	}

	if prefix == "" {
		adjIdx, err := randIndex(len(adjectives))
		if err != nil {
			return "", fmt.Errorf("failed to generate random adjective: %w", err)
		}
		nounIdx, err := randIndex(len(nouns))
		if err != nil {
			return "", fmt.Errorf("failed to generate random noun: %w", err)
		}
		prefix = adjectives[adjIdx] + "-" + nouns[nounIdx]
	}

	suffix, err := randIndex(10000)
	if err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}

	return fmt.Sprintf("%s-%04d", prefix, suffix), nil
}

// GenerateUniqueUsername retries GenerateUsername until exists reports the
// candidate as free or maxAttempts is reached.
func GenerateUniqueUsername(ctx context.Context, base string, exists func(context.Context, string) (bool, error), maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate, err := GenerateUsername(base)
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrUsernameExhausted
}
