package handlekey

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	key, err := Generate(rand.Reader)
	require.NoError(t, err)

	assert.Len(t, key, Length)
}

func TestGenerate_Independent(t *testing.T) {
	a, err := Generate(rand.Reader)
	require.NoError(t, err)
	b, err := Generate(rand.Reader)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two generated keys should differ")
}

func TestGenerate_DeterministicSource(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte{0xAB}, Length))

	key, err := Generate(src)
	require.NoError(t, err)

	assert.Equal(t, bytes.Repeat([]byte{0xAB}, Length), key)
}

func TestGenerate_ShortSource(t *testing.T) {
	src := bytes.NewReader([]byte{1, 2, 3})

	_, err := Generate(src)
	assert.Error(t, err)
}

func TestNewPaddedCBC_RejectsBadKey(t *testing.T) {
	_, err := NewPaddedCBC([]byte("too short"))
	assert.Error(t, err)
}

func TestPaddedCBC_RoundTrip(t *testing.T) {
	masterKey := bytes.Repeat([]byte{0x42}, 16)
	c, err := NewPaddedCBC(masterKey)
	require.NoError(t, err)

	plaintext := []byte("q29tZSBiYXNlNjQga2V5IG1hdGVyaWFs")
	ct, err := c.Encrypt(plaintext)
	require.NoError(t, err)

	// IV prefix plus at least one full padded block.
	require.GreaterOrEqual(t, len(ct), 2*aes.BlockSize)
	require.Zero(t, len(ct)%aes.BlockSize)
	assert.NotContains(t, string(ct), string(plaintext))

	assert.Equal(t, plaintext, decryptCBC(t, masterKey, ct))
}

func TestPaddedCBC_UniqueIV(t *testing.T) {
	c, err := NewPaddedCBC(bytes.Repeat([]byte{0x42}, 16))
	require.NoError(t, err)

	a, err := c.Encrypt([]byte("same input"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same input"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "random IV should make repeated encryptions differ")
}

func TestPad_AlwaysPads(t *testing.T) {
	// A block-aligned input still gains a full padding block.
	b := pad(bytes.Repeat([]byte{0}, 16), 16)
	assert.Len(t, b, 32)
	assert.Equal(t, byte(16), b[31])

	b = pad([]byte{1, 2, 3}, 16)
	assert.Len(t, b, 16)
	assert.Equal(t, byte(13), b[15])
}

func decryptCBC(t *testing.T, key, ct []byte) []byte {
	t.Helper()

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(ct), 2*block.BlockSize())

	iv, body := ct[:block.BlockSize()], ct[block.BlockSize():]
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)

	n := int(out[len(out)-1])
	require.GreaterOrEqual(t, len(out), n)
	return out[:len(out)-n]
}
