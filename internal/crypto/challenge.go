package crypto

import (
	"crypto/aes"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// SharedSecret derives the X25519 shared secret between our encryption
// private key and the registry's encryption public key. The registry may hand
// out either a raw 32-byte key or a DER-wrapped one; in the wrapped form the
// raw key is the trailing 32 bytes.
func SharedSecret(ourPrivateKeyBase64, theirPublicKeyBase64 string) ([]byte, error) {
	priv, err := base64.StdEncoding.DecodeString(ourPrivateKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption private key: %w", err)
	}
	pub, err := base64.StdEncoding.DecodeString(theirPublicKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode peer public key: %w", err)
	}
	if len(priv) != curve25519.ScalarSize {
		return nil, fmt.Errorf("invalid encryption private key length: %d", len(priv))
	}
	if len(pub) > curve25519.PointSize {
		pub = pub[len(pub)-curve25519.PointSize:]
	}
	if len(pub) != curve25519.PointSize {
		return nil, fmt.Errorf("invalid peer public key length: %d", len(pub))
	}
	secret, err := curve25519.X25519(priv, pub)
	if err != nil {
		return nil, fmt.Errorf("x25519 agreement failed: %w", err)
	}
	return secret, nil
}

// DecryptChallenge decrypts the registry's base64 on_subscribe challenge with
// AES using the X25519 shared secret as the key. The registry encrypts with
// AES/ECB/PKCS5, so decryption runs block by block.
func DecryptChallenge(encryptedChallenge, ourPrivateKeyBase64, registryPublicKeyBase64 string) (string, error) {
	secret, err := SharedSecret(ourPrivateKeyBase64, registryPublicKeyBase64)
	if err != nil {
		return "", err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedChallenge)
	if err != nil {
		return "", fmt.Errorf("failed to decode challenge: %w", err)
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return "", fmt.Errorf("challenge length %d is not a multiple of the block size", len(ciphertext))
	}

	plaintext := make([]byte, len(ciphertext))
	for i := 0; i < len(ciphertext); i += block.BlockSize() {
		block.Decrypt(plaintext[i:], ciphertext[i:])
	}

	unpadded, err := stripPKCS5(plaintext, block.BlockSize())
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func stripPKCS5(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
