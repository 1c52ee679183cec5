package secret

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_RoundTrip(t *testing.T) {
	issued, err := Generate()
	require.NoError(t, err)

	id, sec, err := Parse(issued.Plain)
	require.NoError(t, err)
	assert.Equal(t, issued.KeyID, id)
	assert.True(t, Verify(issued.Hash, sec))
	assert.False(t, Verify(issued.Hash, sec+"x"))
	assert.NotContains(t, issued.Hash, sec)
}

func TestGenerate_Unique(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.KeyID, b.KeyID)
	assert.NotEqual(t, a.Plain, b.Plain)
}

func TestParse_Malformed(t *testing.T) {
	for _, key := range []string{"", "nodot", ".secret", "id.", "a.b.c"} {
		_, _, err := Parse(key)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q): expected ErrMalformed, got %v", key, err)
		}
	}
}

func TestVerify_EmptyHash(t *testing.T) {
	assert.False(t, Verify("", "anything"))
}
