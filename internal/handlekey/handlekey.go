// Package handlekey manages handle-obfuscation key material.
//
// Each account store carries two independent secret keys: one scrambling
// externally visible node handles and one scrambling parent handles, so the
// folder structure cannot be recovered by correlating the two. The keys are
// generated once at first open, base64-framed, encrypted under the caller's
// master key and persisted inside the store itself.
//
// The cipher is a collaborator supplied by the caller: the store only invokes
// Encrypt on the write path. Reading the keys back reverses the base64
// framing only; decrypting the slot content under the master key is the
// caller's responsibility.
package handlekey

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// Length is the size of a handle-obfuscation key in bytes.
// It matches the host cipher's key size (AES-128).
const Length = 16

// Generate returns Length bytes of fresh key material from r.
// Pass crypto/rand.Reader outside of tests.
func Generate(r io.Reader) ([]byte, error) {
	key := make([]byte, Length)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("generate handle key: %w", err)
	}
	return key, nil
}

// Cipher encrypts key material under the caller's master key before it is
// persisted. Implementations own the key; the store never sees it.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
}

// paddedCBC is the default Cipher: AES-CBC with PKCS#7 padding and a random
// IV prepended to the ciphertext.
type paddedCBC struct {
	block cipher.Block
}

// NewPaddedCBC returns a Cipher keyed by masterKey.
// masterKey must be a valid AES key length (16, 24 or 32 bytes).
func NewPaddedCBC(masterKey []byte) (Cipher, error) {
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("handlekey: bad master key: %w", err)
	}
	return &paddedCBC{block: block}, nil
}

func (c *paddedCBC) Encrypt(plaintext []byte) ([]byte, error) {
	padded := pad(plaintext, c.block.BlockSize())

	out := make([]byte, c.block.BlockSize()+len(padded))
	iv := out[:c.block.BlockSize()]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("handlekey: generate IV: %w", err)
	}

	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[c.block.BlockSize():], padded)
	return out, nil
}

// pad applies PKCS#7 padding. Always appends at least one byte, so the
// result length is a non-zero multiple of blockSize.
func pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}
