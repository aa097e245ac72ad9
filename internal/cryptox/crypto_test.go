package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	secret := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(secret, salt)
	key2 := DeriveKey(secret, salt)

	require.Len(t, key1, KeySize)
	assert.True(t, bytes.Equal(key1, key2))

	// snapshot: argon2id(t=1, m=64MiB, p=4) must not drift between builds
	assert.Equal(t, "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39", hex.EncodeToString(key1))
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	secret := []byte("secret-password")
	assert.NotEqual(t, DeriveKey(secret, []byte("salt-1")), DeriveKey(secret, []byte("salt-2")))
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("k"), []byte("s"))

	sealed, err := Seal([]byte("3f2c1a"), key)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "3f2c1a")

	plain, err := Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("3f2c1a"), plain)
}

func TestSeal_FreshNonceEachCall(t *testing.T) {
	key := DeriveKey([]byte("k"), []byte("s"))

	a, err := Seal([]byte("same"), key)
	require.NoError(t, err)
	b, err := Seal([]byte("same"), key)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpen_WrongKeyAndTruncated(t *testing.T) {
	key := DeriveKey([]byte("right"), []byte("s"))
	sealed, err := Seal([]byte("value"), key)
	require.NoError(t, err)

	_, err = Open(sealed, DeriveKey([]byte("wrong"), []byte("s")))
	require.Error(t, err)

	_, err = Open(sealed[:4], key)
	require.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestSeal_BadKeyLength(t *testing.T) {
	_, err := Seal([]byte("v"), []byte("short"))
	require.Error(t, err)
}

func TestMakeVerifier(t *testing.T) {
	key := DeriveKey([]byte("k"), []byte("s"))
	assert.Len(t, MakeVerifier(key), 32)
	assert.Equal(t, MakeVerifier(key), MakeVerifier(key))
	assert.NotEqual(t, MakeVerifier(key), MakeVerifier(DeriveKey([]byte("x"), []byte("s"))))
}
