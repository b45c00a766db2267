package security

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// JWKSKeyID is the kid published for the access-token signing key.
const JWKSKeyID = "auth-key-1"

// JWKS converts the public key into a JSON Web Key Set with a single RSA key annotated
// use=sig, alg=RS256, kid=JWKSKeyID. Returns ErrKeyNotConfigured if no public key is set.
func (k *KeyMaterial) JWKS() (jwk.Set, error) {
	pub, err := k.PublicKey()
	if err != nil {
		return nil, err
	}
	key, err := jwk.Import(pub)
	if err != nil {
		return nil, fmt.Errorf("jwk import: %w", err)
	}
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		return nil, err
	}
	if err := key.Set(jwk.KeyIDKey, JWKSKeyID); err != nil {
		return nil, err
	}
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, err
	}
	return set, nil
}
