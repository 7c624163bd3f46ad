package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// signatureValidity is how long a signed Authorization header stays valid.
const signatureValidity = 300 * time.Second

// BlakeHash computes the base64 BLAKE2b-512 digest of a request body.
func BlakeHash(body []byte) string {
	sum := blake2b.Sum512(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// SigningString builds the canonical string that gets signed.
func SigningString(created, expires int64, digest string) string {
	return fmt.Sprintf("(created): %d\n(expires): %d\ndigest: BLAKE-512=%s", created, expires, digest)
}

// Sign signs a message with a base64-encoded Ed25519 private key.
func Sign(message string, privateKeyBase64 string) (string, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(privateKeyBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode signing key: %w", err)
	}
	var priv ed25519.PrivateKey
	switch len(keyBytes) {
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(keyBytes)
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(keyBytes)
	default:
		return "", fmt.Errorf("invalid signing key length: %d", len(keyBytes))
	}
	sig := ed25519.Sign(priv, []byte(message))
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks an Ed25519 signature against a base64-encoded public key.
// A bad signature is an error, never a silent pass.
func Verify(message, signatureBase64, publicKeyBase64 string) error {
	pubBytes, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key length: %d", len(pubBytes))
	}
	sig, err := base64.StdEncoding.DecodeString(signatureBase64)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pubBytes), []byte(message), sig) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}

// AuthorizationHeader builds the signed Authorization header for an outbound
// callback per the Beckn signing scheme.
func AuthorizationHeader(body []byte, subscriberID, uniqueKeyID, privateKeyBase64 string) (string, error) {
	created := time.Now().Unix()
	expires := created + int64(signatureValidity.Seconds())

	signingString := SigningString(created, expires, BlakeHash(body))
	signature, err := Sign(signingString, privateKeyBase64)
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}

	return fmt.Sprintf(
		`Signature keyId="%s|%s|ed25519",algorithm="ed25519",created="%d",expires="%d",headers="(created) (expires) digest",signature="%s"`,
		subscriberID, uniqueKeyID, created, expires, signature), nil
}

// SignatureParts holds the fields parsed out of an Authorization header.
type SignatureParts struct {
	KeyID     string
	Created   int64
	Expires   int64
	Signature string
}

// SubscriberID returns the subscriber portion of the keyId field.
func (p SignatureParts) SubscriberID() string {
	if i := strings.Index(p.KeyID, "|"); i >= 0 {
		return p.KeyID[:i]
	}
	return p.KeyID
}

// UniqueKeyID returns the key-id label portion of the keyId field.
func (p SignatureParts) UniqueKeyID() string {
	fields := strings.Split(p.KeyID, "|")
	if len(fields) >= 2 {
		return fields[1]
	}
	return ""
}

// ParseAuthorizationHeader extracts the signature fields from the header.
func ParseAuthorizationHeader(header string) (*SignatureParts, error) {
	keyID := extractField(header, "keyId")
	createdStr := extractField(header, "created")
	expiresStr := extractField(header, "expires")
	signature := extractField(header, "signature")
	if createdStr == "" || expiresStr == "" || signature == "" {
		return nil, fmt.Errorf("missing fields in authorization header")
	}
	created, err := strconv.ParseInt(createdStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created timestamp: %w", err)
	}
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid expires timestamp: %w", err)
	}
	return &SignatureParts{
		KeyID:     keyID,
		Created:   created,
		Expires:   expires,
		Signature: signature,
	}, nil
}

// VerifyAuthorizationHeader recomputes the digest over the received body and
// verifies the header signature against the counterparty's public key.
func VerifyAuthorizationHeader(header string, body []byte, senderPublicKeyBase64 string) error {
	parts, err := ParseAuthorizationHeader(header)
	if err != nil {
		return err
	}
	if time.Now().Unix() > parts.Expires {
		return fmt.Errorf("authorization header expired at %d", parts.Expires)
	}
	signingString := SigningString(parts.Created, parts.Expires, BlakeHash(body))
	if err := Verify(signingString, parts.Signature, senderPublicKeyBase64); err != nil {
		return fmt.Errorf("authorization verification failed: %w", err)
	}
	return nil
}

func extractField(header, name string) string {
	marker := name + `="`
	start := strings.Index(header, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(header[start:], `"`)
	if end < 0 {
		return ""
	}
	return header[start : start+end]
}
