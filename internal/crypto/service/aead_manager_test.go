package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/wishcraft/gatekeeper/internal/crypto/domain"
)

func randomKey(t *testing.T) []byte {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestCreateCipher(t *testing.T) {
	manager := NewAEADManager()

	t.Run("AESGCM", func(t *testing.T) {
		cipher, err := manager.CreateCipher(randomKey(t), cryptoDomain.AESGCM)
		require.NoError(t, err)
		assert.IsType(t, &AESGCMCipher{}, cipher)
	})

	t.Run("ChaCha20", func(t *testing.T) {
		cipher, err := manager.CreateCipher(randomKey(t), cryptoDomain.ChaCha20)
		require.NoError(t, err)
		assert.IsType(t, &ChaCha20Poly1305Cipher{}, cipher)
	})

	t.Run("InvalidKeySize", func(t *testing.T) {
		_, err := manager.CreateCipher(make([]byte, 16), cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})

	t.Run("UnsupportedAlgorithm", func(t *testing.T) {
		_, err := manager.CreateCipher(randomKey(t), cryptoDomain.Algorithm("des"))
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})
}

func TestAEADRoundTrip(t *testing.T) {
	manager := NewAEADManager()

	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			cipher, err := manager.CreateCipher(randomKey(t), alg)
			require.NoError(t, err)

			plaintext := []byte(`{"customer_id":"C123","shop_domain":"example.myshopify.com"}`)
			aad := []byte("example.myshopify.com")

			ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
			require.NoError(t, err)
			assert.Len(t, nonce, 12)
			assert.NotEqual(t, plaintext, ciphertext)

			decrypted, err := cipher.Decrypt(ciphertext, nonce, aad)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		})
	}
}

func TestAEADTamperDetection(t *testing.T) {
	manager := NewAEADManager()

	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			cipher, err := manager.CreateCipher(randomKey(t), alg)
			require.NoError(t, err)

			ciphertext, nonce, err := cipher.Encrypt([]byte("session payload"), nil)
			require.NoError(t, err)

			// Flipping any single bit must fail the authentication tag check.
			for i := range ciphertext {
				tampered := make([]byte, len(ciphertext))
				copy(tampered, ciphertext)
				tampered[i] ^= 0x01

				_, err := cipher.Decrypt(tampered, nonce, nil)
				assert.Error(t, err, "bit flip at byte %d must be detected", i)
			}
		})
	}
}

func TestAEADRejectsWrongAAD(t *testing.T) {
	manager := NewAEADManager()
	cipher, err := manager.CreateCipher(randomKey(t), cryptoDomain.AESGCM)
	require.NoError(t, err)

	ciphertext, nonce, err := cipher.Encrypt([]byte("payload"), []byte("shop-a.myshopify.com"))
	require.NoError(t, err)

	_, err = cipher.Decrypt(ciphertext, nonce, []byte("shop-b.myshopify.com"))
	assert.Error(t, err)
}
