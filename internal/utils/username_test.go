package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsername(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{4}$`)
	for i := 0; i < 50; i++ {
		name, err := GenerateUsername()
		require.NoError(t, err)
		assert.Regexp(t, pattern, name)
	}
}
