package crypto

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	keys, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	message := "the quick brown fox"
	signature, err := Sign(message, keys.PrivateKey)
	require.NoError(t, err)

	assert.NoError(t, Verify(message, signature, keys.PublicKey))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	keys, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	signature, err := Sign("original message", keys.PrivateKey)
	require.NoError(t, err)

	assert.Error(t, Verify("tampered message", signature, keys.PublicKey))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	keys, err := GenerateSigningKeyPair()
	require.NoError(t, err)
	otherKeys, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	signature, err := Sign("message", keys.PrivateKey)
	require.NoError(t, err)

	assert.Error(t, Verify("message", signature, otherKeys.PublicKey))
}

func TestSignRejectsMalformedKey(t *testing.T) {
	_, err := Sign("message", "not-base64!!")
	assert.Error(t, err)

	_, err = Sign("message", "c2hvcnQ=")
	assert.Error(t, err)
}

func TestAuthorizationHeaderRoundTrip(t *testing.T) {
	keys, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	body := []byte(`{"context":{"action":"on_confirm"},"message":{}}`)
	header, err := AuthorizationHeader(body, "seller.example.com", "key-1", keys.PrivateKey)
	require.NoError(t, err)

	assert.Contains(t, header, `keyId="seller.example.com|key-1|ed25519"`)
	assert.Contains(t, header, `algorithm="ed25519"`)
	assert.Contains(t, header, `headers="(created) (expires) digest"`)

	assert.NoError(t, VerifyAuthorizationHeader(header, body, keys.PublicKey))
}

func TestVerifyAuthorizationHeaderRejectsModifiedBody(t *testing.T) {
	keys, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	header, err := AuthorizationHeader([]byte("original body"), "seller.example.com", "key-1", keys.PrivateKey)
	require.NoError(t, err)

	assert.Error(t, VerifyAuthorizationHeader(header, []byte("different body"), keys.PublicKey))
}

func TestVerifyAuthorizationHeaderRejectsExpired(t *testing.T) {
	keys, err := GenerateSigningKeyPair()
	require.NoError(t, err)

	body := []byte("payload")
	created := time.Now().Add(-10 * time.Minute).Unix()
	expires := created + 300
	signingString := SigningString(created, expires, BlakeHash(body))
	signature, err := Sign(signingString, keys.PrivateKey)
	require.NoError(t, err)

	header := `Signature keyId="seller.example.com|key-1|ed25519",algorithm="ed25519",created="` +
		strconv.FormatInt(created, 10) + `",expires="` + strconv.FormatInt(expires, 10) +
		`",headers="(created) (expires) digest",signature="` + signature + `"`

	err = VerifyAuthorizationHeader(header, body, keys.PublicKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestParseAuthorizationHeader(t *testing.T) {
	header := `Signature keyId="buyer.example.com|bap-key-7|ed25519",algorithm="ed25519",created="1700000000",expires="1700000300",headers="(created) (expires) digest",signature="c2ln"`

	parts, err := ParseAuthorizationHeader(header)
	require.NoError(t, err)

	assert.Equal(t, "buyer.example.com", parts.SubscriberID())
	assert.Equal(t, "bap-key-7", parts.UniqueKeyID())
	assert.Equal(t, int64(1700000000), parts.Created)
	assert.Equal(t, int64(1700000300), parts.Expires)
	assert.Equal(t, "c2ln", parts.Signature)
}

func TestParseAuthorizationHeaderMissingFields(t *testing.T) {
	_, err := ParseAuthorizationHeader("Signature algorithm=\"ed25519\"")
	assert.Error(t, err)

	_, err = ParseAuthorizationHeader("")
	assert.Error(t, err)
}

func TestSigningStringFormat(t *testing.T) {
	s := SigningString(100, 400, "ZGlnZXN0")
	assert.Equal(t, "(created): 100\n(expires): 400\ndigest: BLAKE-512=ZGlnZXN0", s)
}
