package token

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tourbook/internal/domain/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateRSAPair(t *testing.T) KeyPair {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return KeyPair{Private: key, Public: &key.PublicKey}
}

func encodeRSAPair(t *testing.T, kp KeyPair) (string, string) {
	t.Helper()
	priv := kp.Private.(*rsa.PrivateKey)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return string(privPEM), string(pubPEM)
}

func newTestCodec(t *testing.T, accessTTL, refreshTTL time.Duration) *Codec {
	t.Helper()
	codec, err := NewCodec(Config{
		Access:     generateRSAPair(t),
		Refresh:    generateRSAPair(t),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Issuer:     "tourbook-test",
	})
	require.NoError(t, err)
	return codec
}

func testSnapshot() auth.Snapshot {
	return auth.Snapshot{ID: "u-1", Name: "Ada", Email: "ada@example.com", Role: auth.RoleGuide}
}

func TestCodec_SignAndVerify(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, time.Hour)

	for _, kind := range []Kind{Access, Refresh} {
		t.Run(kind.String(), func(t *testing.T) {
			signed, err := codec.Sign(kind, testSnapshot(), "s-1")
			require.NoError(t, err)

			res := codec.Verify(kind, signed)
			require.True(t, res.Valid)
			assert.False(t, res.Expired)
			require.NotNil(t, res.Claims)
			assert.Equal(t, testSnapshot(), res.Claims.User)
			assert.Equal(t, "s-1", res.Claims.SessionID)
			assert.Equal(t, "u-1", res.Claims.Subject)
		})
	}
}

func TestCodec_TTL(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, 8760*time.Hour)
	assert.Equal(t, 15*time.Minute, codec.TTL(Access))
	assert.Equal(t, 8760*time.Hour, codec.TTL(Refresh))
}

func TestCodec_ZeroTTLIsExpired(t *testing.T) {
	codec := newTestCodec(t, 0, time.Hour)

	signed, err := codec.Sign(Access, testSnapshot(), "s-1")
	require.NoError(t, err)

	res := codec.Verify(Access, signed)
	assert.False(t, res.Valid)
	assert.True(t, res.Expired)
	assert.Nil(t, res.Claims)
}

func TestCodec_ExpiresWithClock(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)
	start := time.Now()
	codec.SetClock(func() time.Time { return start })

	signed, err := codec.Sign(Access, testSnapshot(), "s-1")
	require.NoError(t, err)
	require.True(t, codec.Verify(Access, signed).Valid)

	codec.SetClock(func() time.Time { return start.Add(2 * time.Minute) })
	res := codec.Verify(Access, signed)
	assert.False(t, res.Valid)
	assert.True(t, res.Expired)
}

func TestCodec_InvalidTokens(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)
	other := newTestCodec(t, time.Minute, time.Hour)

	access, err := codec.Sign(Access, testSnapshot(), "s-1")
	require.NoError(t, err)
	foreign, err := other.Sign(Access, testSnapshot(), "s-1")
	require.NoError(t, err)

	parts := strings.Split(access, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		kind  Kind
		token string
	}{
		{name: "empty", kind: Access, token: ""},
		{name: "garbage", kind: Access, token: "not-a-token"},
		{name: "tampered payload", kind: Access, token: tampered},
		{name: "signed by another key", kind: Access, token: foreign},
		{name: "access presented as refresh", kind: Refresh, token: access},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := codec.Verify(tt.kind, tt.token)
			assert.False(t, res.Valid)
			assert.False(t, res.Expired)
			assert.Nil(t, res.Claims)
		})
	}
}

func TestCodec_ExpiredForeignTokenIsInvalid(t *testing.T) {
	codec := newTestCodec(t, 0, time.Hour)
	other := newTestCodec(t, 0, time.Hour)

	foreign, err := other.Sign(Access, testSnapshot(), "s-1")
	require.NoError(t, err)

	res := codec.Verify(Access, foreign)
	assert.False(t, res.Valid)
	assert.False(t, res.Expired, "expiry must not be reported before the signature checks out")
}

func TestNewCodec_Errors(t *testing.T) {
	a := generateRSAPair(t)
	b := generateRSAPair(t)

	_, err := NewCodec(Config{Access: KeyPair{Private: a.Private, Public: b.Public}, Refresh: b, AccessTTL: time.Minute, RefreshTTL: time.Hour})
	assert.ErrorIs(t, err, ErrKeyMismatch)

	_, err = NewCodec(Config{Access: a, Refresh: KeyPair{}, AccessTTL: time.Minute, RefreshTTL: time.Hour})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewCodec(Config{Access: a, Refresh: b, AccessTTL: -time.Second, RefreshTTL: time.Hour})
	assert.Error(t, err)
}

func TestCodec_ES256(t *testing.T) {
	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	codec, err := NewCodec(Config{
		Access:     KeyPair{Private: ec, Public: &ec.PublicKey},
		Refresh:    generateRSAPair(t),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)

	signed, err := codec.Sign(Access, testSnapshot(), "s-1")
	require.NoError(t, err)
	assert.True(t, codec.Verify(Access, signed).Valid)
}

func TestLoadKeyPair(t *testing.T) {
	kp := generateRSAPair(t)
	privPEM, pubPEM := encodeRSAPair(t, kp)

	t.Run("inline PEM", func(t *testing.T) {
		loaded, err := LoadKeyPair(privPEM, pubPEM)
		require.NoError(t, err)
		_, err = loaded.signingMethod()
		require.NoError(t, err)
	})

	t.Run("file paths", func(t *testing.T) {
		dir := t.TempDir()
		privPath := filepath.Join(dir, "access.pem")
		pubPath := filepath.Join(dir, "access.pub.pem")
		require.NoError(t, os.WriteFile(privPath, []byte(privPEM), 0o600))
		require.NoError(t, os.WriteFile(pubPath, []byte(pubPEM), 0o600))

		loaded, err := LoadKeyPair(privPath, pubPath)
		require.NoError(t, err)
		assert.True(t, kp.Private.Public().(*rsa.PublicKey).Equal(loaded.Public))
	})

	t.Run("not a key", func(t *testing.T) {
		_, err := LoadKeyPair("-----BEGIN NOTHING-----", pubPEM)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := LoadKeyPair("", pubPEM)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestCodec_JWKS(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)

	set, err := codec.JWKS()
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)

	jwk := set.Keys[0]
	assert.Equal(t, "RSA", jwk.Kty)
	assert.Equal(t, "RS256", jwk.Alg)
	assert.NotEmpty(t, jwk.Kid)

	pub, err := jwkToPublicKey(jwk)
	require.NoError(t, err)
	assert.True(t, pub.(*rsa.PublicKey).Equal(codec.kinds[Access].keys.Public))
}

func TestJWK_ECRoundTrip(t *testing.T) {
	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	jwk, err := publicKeyToJWK(&ec.PublicKey, "ES256")
	require.NoError(t, err)
	assert.Equal(t, "P-256", jwk.Crv)

	pub, err := jwkToPublicKey(jwk)
	require.NoError(t, err)
	assert.True(t, ec.PublicKey.Equal(pub))

	_, err = jwkToPublicKey(JWK{Kty: "oct"})
	assert.Error(t, err)
}
