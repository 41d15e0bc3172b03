package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidKey is returned when PEM or key type is invalid
	ErrInvalidKey = errors.New("invalid key")
	// ErrKeyMismatch is returned when a public key does not belong to its private key
	ErrKeyMismatch = errors.New("public key does not match private key")
)

// LoadPEM returns s as bytes when it is inline PEM, otherwise reads it as a file path
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(s), nil
	}
	return os.ReadFile(s)
}

// ParsePrivateKey parses a PEM-encoded RSA or ECDSA private key
func ParsePrivateKey(s string) (crypto.Signer, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidKey
		}
		return signer, nil
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// ParsePublicKey parses a PEM-encoded RSA or ECDSA public key
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// KeyPair is the asymmetric key pair of one token kind
type KeyPair struct {
	Private crypto.Signer
	Public  crypto.PublicKey
}

// LoadKeyPair parses a private and public key from inline PEM or file paths
func LoadKeyPair(private, public string) (KeyPair, error) {
	priv, err := ParsePrivateKey(private)
	if err != nil {
		return KeyPair{}, err
	}
	pub, err := ParsePublicKey(public)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

// signingMethod picks RS256 or ES256 from the key type and checks that both halves belong together
func (kp KeyPair) signingMethod() (jwt.SigningMethod, error) {
	if kp.Private == nil || kp.Public == nil {
		return nil, ErrInvalidKey
	}
	pub, ok := kp.Private.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(kp.Public) {
		return nil, ErrKeyMismatch
	}
	switch k := kp.Public.(type) {
	case *rsa.PublicKey:
		return jwt.SigningMethodRS256, nil
	case *ecdsa.PublicKey:
		if k.Curve.Params().BitSize != 256 {
			return nil, ErrInvalidKey
		}
		return jwt.SigningMethodES256, nil
	default:
		return nil, ErrInvalidKey
	}
}
