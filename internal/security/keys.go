package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrInvalidKey is returned when PEM or key type is invalid.
	ErrInvalidKey = errors.New("invalid key")
	// ErrKeyNotConfigured is returned when a signing or verification key is absent.
	// It is a server-side configuration fault, never a client error.
	ErrKeyNotConfigured = errors.New("key material not configured")
)

// KeyMaterial holds the RSA key pair for access tokens and the symmetric secret for
// refresh tokens. It is immutable after construction and safe for concurrent use.
type KeyMaterial struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	refreshSecret []byte
}

// NewKeyMaterial returns KeyMaterial for the given keys. Any of them may be nil/empty;
// accessors then fail with ErrKeyNotConfigured.
func NewKeyMaterial(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, refreshSecret []byte) *KeyMaterial {
	var secret []byte
	if len(refreshSecret) > 0 {
		secret = make([]byte, len(refreshSecret))
		copy(secret, refreshSecret)
	}
	return &KeyMaterial{privateKey: privateKey, publicKey: publicKey, refreshSecret: secret}
}

// LoadKeyMaterial parses the private and public keys (inline PEM or file path) and wraps the
// refresh secret. Empty inputs are left unset; malformed inputs return an error.
func LoadKeyMaterial(privateKey, publicKey, refreshSecret string) (*KeyMaterial, error) {
	var (
		priv *rsa.PrivateKey
		pub  *rsa.PublicKey
		err  error
	)
	if strings.TrimSpace(privateKey) != "" {
		if priv, err = ParsePrivateKey(privateKey); err != nil {
			return nil, fmt.Errorf("private key: %w", err)
		}
	}
	if strings.TrimSpace(publicKey) != "" {
		if pub, err = ParsePublicKey(publicKey); err != nil {
			return nil, fmt.Errorf("public key: %w", err)
		}
	}
	return NewKeyMaterial(priv, pub, []byte(refreshSecret)), nil
}

// PrivateKey returns the RSA signing key for access tokens.
func (k *KeyMaterial) PrivateKey() (*rsa.PrivateKey, error) {
	if k == nil || k.privateKey == nil {
		return nil, fmt.Errorf("%w: private key is not set", ErrKeyNotConfigured)
	}
	return k.privateKey, nil
}

// PublicKey returns the RSA verification key for access tokens.
func (k *KeyMaterial) PublicKey() (*rsa.PublicKey, error) {
	if k == nil || k.publicKey == nil {
		return nil, fmt.Errorf("%w: public key is not set", ErrKeyNotConfigured)
	}
	return k.publicKey, nil
}

// RefreshSecret returns the HMAC secret for refresh tokens.
func (k *KeyMaterial) RefreshSecret() ([]byte, error) {
	if k == nil || len(k.refreshSecret) == 0 {
		return nil, fmt.Errorf("%w: refresh token secret is not set", ErrKeyNotConfigured)
	}
	return k.refreshSecret, nil
}

// Validate reports whether all key material is present and the public key matches the private key.
// The server calls it at startup and refuses traffic on error.
func (k *KeyMaterial) Validate() error {
	priv, err := k.PrivateKey()
	if err != nil {
		return err
	}
	pub, err := k.PublicKey()
	if err != nil {
		return err
	}
	if _, err := k.RefreshSecret(); err != nil {
		return err
	}
	if !priv.PublicKey.Equal(pub) {
		return fmt.Errorf("%w: public key does not match private key", ErrInvalidKey)
	}
	return nil
}

// LoadPEM reads content from path if s does not look like inline PEM; otherwise returns s as bytes.
// Escaped newlines ("\n" as two characters, common in .env files) are expanded.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		if !strings.Contains(s, "\n") {
			s = strings.ReplaceAll(s, `\n`, "\n")
		}
		return []byte(s), nil
	}
	return os.ReadFile(s)
}

// ParsePrivateKey parses a PEM-encoded RSA private key (PKCS#1 or PKCS#8). s may be inline PEM or a file path.
func ParsePrivateKey(s string) (*rsa.PrivateKey, error) {
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
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrInvalidKey
		}
		return rsaKey, nil
	default:
		return nil, ErrInvalidKey
	}
}

// ParsePublicKey parses a PEM-encoded RSA public key (PKCS#1 or PKIX). s may be inline PEM or a file path.
func ParsePublicKey(s string) (*rsa.PublicKey, error) {
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
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, ErrInvalidKey
		}
		return rsaKey, nil
	default:
		return nil, ErrInvalidKey
	}
}
