package cryptoutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestAESGCMEncryptor_RoundTripsApplicationPassword(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey())
	require.NoError(t, err)

	ct, err := enc.Encrypt([]byte("abcd efgh ijkl mnop"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "v1:"))
	assert.NotContains(t, ct, "abcd")

	again, err := enc.Encrypt([]byte("abcd efgh ijkl mnop"))
	require.NoError(t, err)
	assert.NotEqual(t, ct, again, "nonce must differ per value")

	pt, err := enc.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "abcd efgh ijkl mnop", string(pt))
}

func TestAESGCMEncryptor_ReadsNoopValues(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey())
	require.NoError(t, err)

	ct, err := NoopEncryptor{}.Encrypt([]byte("legacy"))
	require.NoError(t, err)
	pt, err := enc.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "legacy", string(pt))
}

func TestAESGCMEncryptor_Errors(t *testing.T) {
	_, err := NewAESGCMEncryptor([]byte("short"))
	require.Error(t, err)

	enc, err := NewAESGCMEncryptor(testKey())
	require.NoError(t, err)

	_, err = enc.Decrypt("v2:abc")
	assert.ErrorIs(t, err, ErrUnknownCipherVersion)

	_, err = enc.Decrypt("v1:!!!")
	assert.Error(t, err)

	_, err = enc.Decrypt("v1:AAAA")
	assert.Error(t, err)

	other, err := NewAESGCMEncryptor(KeyFromString("another key"))
	require.NoError(t, err)
	ct, err := other.Encrypt([]byte("x"))
	require.NoError(t, err)
	_, err = enc.Decrypt(ct)
	assert.Error(t, err, "wrong key must not open the value")
}

func TestKeyFromString(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)
	assert.Len(t, KeyFromString(hexKey), 32)
	assert.Equal(t, byte(0xab), KeyFromString(hexKey)[0])

	derived := KeyFromString("passphrase")
	assert.Len(t, derived, 32)
	assert.Equal(t, derived, KeyFromString("passphrase"))
}

func TestNoopEncryptor_RejectsForeignValues(t *testing.T) {
	_, err := NoopEncryptor{}.Decrypt("v1:abc")
	assert.Error(t, err)
}
