package domain

// Algorithm represents the AEAD algorithm used to seal session payloads.
//
// Both supported algorithms provide Authenticated Encryption with Associated
// Data: a 256-bit key, a 12-byte random nonce per call, and a 16-byte
// authentication tag verified on open.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	// Preferred on CPUs with AES-NI hardware acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption
	// algorithm. Constant-time in software; preferred where AES-NI is absent.
	ChaCha20 Algorithm = "chacha20-poly1305"
)
