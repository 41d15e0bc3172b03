package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math/big"
)

// JWK is a public key in JSON Web Key form
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// JWKSet is the document served to external access token verifiers
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// keyID derives a stable key id from the public key
func keyID(pub crypto.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}

// publicKeyToJWK converts an RSA or P-256 public key to a JWK
func publicKeyToJWK(pub crypto.PublicKey, alg string) (JWK, error) {
	b64 := base64.RawURLEncoding
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return JWK{
			Kty: "RSA",
			Kid: keyID(pub),
			Use: "sig",
			Alg: alg,
			N:   b64.EncodeToString(k.N.Bytes()),
			E:   b64.EncodeToString(big.NewInt(int64(k.E)).Bytes()),
		}, nil
	case *ecdsa.PublicKey:
		size := (k.Curve.Params().BitSize + 7) / 8
		return JWK{
			Kty: "EC",
			Kid: keyID(pub),
			Use: "sig",
			Alg: alg,
			Crv: k.Curve.Params().Name,
			X:   b64.EncodeToString(k.X.FillBytes(make([]byte, size))),
			Y:   b64.EncodeToString(k.Y.FillBytes(make([]byte, size))),
		}, nil
	default:
		return JWK{}, fmt.Errorf("unsupported key type %T", pub)
	}
}

// jwkToPublicKey converts a JWK back to a public key
func jwkToPublicKey(jwk JWK) (crypto.PublicKey, error) {
	b64 := base64.RawURLEncoding
	switch jwk.Kty {
	case "RSA":
		nBytes, err := b64.DecodeString(jwk.N)
		if err != nil {
			return nil, fmt.Errorf("failed to decode n: %w", err)
		}
		eBytes, err := b64.DecodeString(jwk.E)
		if err != nil {
			return nil, fmt.Errorf("failed to decode e: %w", err)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: int(new(big.Int).SetBytes(eBytes).Int64()),
		}, nil
	case "EC":
		if jwk.Crv != elliptic.P256().Params().Name {
			return nil, fmt.Errorf("unsupported curve: %s", jwk.Crv)
		}
		xBytes, err := b64.DecodeString(jwk.X)
		if err != nil {
			return nil, fmt.Errorf("failed to decode x: %w", err)
		}
		yBytes, err := b64.DecodeString(jwk.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to decode y: %w", err)
		}
		return &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(xBytes),
			Y:     new(big.Int).SetBytes(yBytes),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported key type: %s", jwk.Kty)
	}
}

// JWKS publishes the access token public key. Refresh keys are never published:
// refresh tokens are only verified by this service.
func (c *Codec) JWKS() (JWKSet, error) {
	kc := c.kinds[Access]
	jwk, err := publicKeyToJWK(kc.keys.Public, kc.method.Alg())
	if err != nil {
		return JWKSet{}, err
	}
	return JWKSet{Keys: []JWK{jwk}}, nil
}
