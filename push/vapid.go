// Package push implements VAPID-authorized, payload-less web push delivery:
// ES256 token minting from raw key material and the outbound POST to the
// subscriber's push endpoint.
package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"time"

	"ramadantracker.app/errors"
)

// TokenLifetime bounds how long a minted authorization token stays valid.
// The push authorization scheme caps this at 24 hours; 12 keeps headroom.
const TokenLifetime = 12 * time.Hour

const (
	rawPublicKeyLen  = 65 // 0x04 || X(32) || Y(32)
	rawPrivateKeyLen = 32
	sigComponentLen  = 32
)

// VAPIDKeys holds the application server key pair used to sign push
// authorization tokens.
type VAPIDKeys struct {
	private   *ecdsa.PrivateKey
	publicB64 string
}

// LoadVAPIDKeys reconstructs a P-256 signing key from the URL-safe base64
// encodings of a raw uncompressed public point and a raw private scalar.
// Malformed material is rejected here so a bad deployment fails at startup
// rather than producing unverifiable tokens.
func LoadVAPIDKeys(publicB64, privateB64 string) (*VAPIDKeys, error) {
	pub, err := base64.RawURLEncoding.DecodeString(publicB64)
	if err != nil {
		return nil, errors.NewCryptoError("decode VAPID public key", err)
	}
	priv, err := base64.RawURLEncoding.DecodeString(privateB64)
	if err != nil {
		return nil, errors.NewCryptoError("decode VAPID private key", err)
	}
	if len(pub) != rawPublicKeyLen || pub[0] != 0x04 {
		return nil, errors.NewCryptoError("VAPID public key must be a 65-byte uncompressed P-256 point", nil)
	}
	if len(priv) != rawPrivateKeyLen {
		return nil, errors.NewCryptoError("VAPID private key must be a 32-byte scalar", nil)
	}

	curve := elliptic.P256()
	x := new(big.Int).SetBytes(pub[1:33])
	y := new(big.Int).SetBytes(pub[33:65])
	if !curve.IsOnCurve(x, y) {
		return nil, errors.NewCryptoError("VAPID public key is not on the P-256 curve", nil)
	}

	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         new(big.Int).SetBytes(priv),
	}
	return &VAPIDKeys{private: key, publicB64: publicB64}, nil
}

// PublicKey returns the URL-safe base64 encoding of the raw public key, as
// clients need it for pushManager.subscribe and as the k= header parameter.
func (k *VAPIDKeys) PublicKey() string {
	return k.publicB64
}

type tokenHeader struct {
	Typ string `json:"typ"`
	Alg string `json:"alg"`
}

type tokenClaims struct {
	Aud string `json:"aud"`
	Exp int64  `json:"exp"`
	Sub string `json:"sub"`
}

// Token mints a signed authorization token scoped to the push service
// audience, expiring at expiry, with subject as the contact claim.
func (k *VAPIDKeys) Token(audience string, expiry time.Time, subject string) (string, error) {
	header, err := json.Marshal(tokenHeader{Typ: "JWT", Alg: "ES256"})
	if err != nil {
		return "", errors.NewCryptoError("encode token header", err)
	}
	claims, err := json.Marshal(tokenClaims{Aud: audience, Exp: expiry.Unix(), Sub: subject})
	if err != nil {
		return "", errors.NewCryptoError("encode token claims", err)
	}

	input := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(claims)

	digest := sha256.Sum256([]byte(input))
	der, err := ecdsa.SignASN1(rand.Reader, k.private, digest[:])
	if err != nil {
		return "", errors.NewCryptoError("sign token", err)
	}
	sig, err := derToJOSE(der, sigComponentLen)
	if err != nil {
		return "", err
	}

	return input + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// derToJOSE converts a DER-encoded ECDSA signature to the fixed-width JOSE
// form: r and s as big-endian integers with DER's sign-padding byte stripped,
// each zero-left-padded to partLen bytes and concatenated.
func derToJOSE(der []byte, partLen int) ([]byte, error) {
	var sig struct {
		R, S *big.Int
	}
	rest, err := asn1.Unmarshal(der, &sig)
	if err != nil {
		return nil, errors.NewCryptoError("parse DER signature", err)
	}
	if len(rest) != 0 {
		return nil, errors.NewCryptoError("trailing bytes after DER signature", nil)
	}
	if sig.R.Sign() <= 0 || sig.S.Sign() <= 0 {
		return nil, errors.NewCryptoError("DER signature components must be positive", nil)
	}
	if sig.R.BitLen() > partLen*8 || sig.S.BitLen() > partLen*8 {
		return nil, errors.NewCryptoError("DER signature component too long", nil)
	}

	out := make([]byte, 2*partLen)
	sig.R.FillBytes(out[:partLen])
	sig.S.FillBytes(out[partLen:])
	return out, nil
}
