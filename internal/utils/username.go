package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"Bold", "Lucky", "Wise", "Keen", "Steady",
	"Daring", "Canny", "Sharp", "Calm", "Clever",
	"Quiet", "Brave", "Swift", "Shrewd", "Patient",
}

var nouns = []string{
	"Oracle", "Seer", "Prophet", "Augur", "Sage",
	"Owl", "Raven", "Fox", "Falcon", "Sibyl",
	"Pundit", "Scout", "Forecaster", "Diviner", "Lynx",
}

// GenerateUsername creates a default display name in the format
// "AdjectiveNoun1234" for users whose token carries none.
func GenerateUsername() (string, error) {
	adj, err := pick(len(adjectives))
	if err != nil {
		return "", fmt.Errorf("failed to pick adjective: %w", err)
	}
	noun, err := pick(len(nouns))
	if err != nil {
		return "", fmt.Errorf("failed to pick noun: %w", err)
	}
	suffix, err := pick(10000)
	if err != nil {
		return "", fmt.Errorf("failed to pick suffix: %w", err)
	}
	return fmt.Sprintf("%s%s%04d", adjectives[adj], nouns[noun], suffix), nil
}

func pick(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
