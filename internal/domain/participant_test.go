package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	name, err := ValidateName("  Alice  ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	_, err = ValidateName("   ")
	assert.ErrorIs(t, err, ErrNameEmpty)

	cjk := strings.Repeat("山", MaxNameLen)
	require.Greater(t, len(cjk), MaxNameLen)
	name, err = ValidateName(cjk)
	require.NoError(t, err)
	assert.Equal(t, cjk, name)

	_, err = ValidateName(cjk + "山")
	assert.ErrorIs(t, err, ErrNameTooLong)
}
