package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) *[32]byte {
	var k [32]byte
	for i := range k {
		k[i] = b
	}
	return &k
}

func TestBoxRoundTrip(t *testing.T) {
	box := NewBox(testKey(1))

	sealed, err := box.Encrypt("app-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, prefix))
	assert.NotContains(t, sealed, "app-password")

	again, err := box.Encrypt("app-password")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := box.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "app-password", plain)
}

func TestBoxPassesPlaintextThrough(t *testing.T) {
	box := NewBox(testKey(1))

	plain, err := box.Decrypt("legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", plain)

	empty, err := box.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestBoxWrongKey(t *testing.T) {
	sealed, err := NewBox(testKey(1)).Encrypt("secret")
	require.NoError(t, err)

	_, err = NewBox(testKey(2)).Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}
