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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateKeyMaterial produces a fresh P-256 pair in the raw URL-safe base64
// encodings the service is configured with.
func generateKeyMaterial(t *testing.T) (publicB64, privateB64 string, key *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	pub := make([]byte, rawPublicKeyLen)
	pub[0] = 0x04
	key.X.FillBytes(pub[1:33])
	key.Y.FillBytes(pub[33:65])

	priv := make([]byte, rawPrivateKeyLen)
	key.D.FillBytes(priv)

	return base64.RawURLEncoding.EncodeToString(pub), base64.RawURLEncoding.EncodeToString(priv), key
}

func TestLoadVAPIDKeys(t *testing.T) {
	publicB64, privateB64, _ := generateKeyMaterial(t)

	t.Run("ValidKeys", func(t *testing.T) {
		keys, err := LoadVAPIDKeys(publicB64, privateB64)
		require.NoError(t, err)
		assert.Equal(t, publicB64, keys.PublicKey())
	})

	t.Run("NotBase64", func(t *testing.T) {
		_, err := LoadVAPIDKeys("!!!", privateB64)
		assert.Error(t, err)
	})

	t.Run("PublicKeyWrongLength", func(t *testing.T) {
		short := base64.RawURLEncoding.EncodeToString(make([]byte, 33))
		_, err := LoadVAPIDKeys(short, privateB64)
		assert.Error(t, err)
	})

	t.Run("PublicKeyWrongPointPrefix", func(t *testing.T) {
		raw, decodeErr := base64.RawURLEncoding.DecodeString(publicB64)
		require.NoError(t, decodeErr)
		raw[0] = 0x02
		_, err := LoadVAPIDKeys(base64.RawURLEncoding.EncodeToString(raw), privateB64)
		assert.Error(t, err)
	})

	t.Run("PublicKeyNotOnCurve", func(t *testing.T) {
		raw := make([]byte, rawPublicKeyLen)
		raw[0] = 0x04
		raw[1] = 0x01
		_, err := LoadVAPIDKeys(base64.RawURLEncoding.EncodeToString(raw), privateB64)
		assert.Error(t, err)
	})

	t.Run("PrivateKeyWrongLength", func(t *testing.T) {
		short := base64.RawURLEncoding.EncodeToString(make([]byte, 16))
		_, err := LoadVAPIDKeys(publicB64, short)
		assert.Error(t, err)
	})
}

func TestToken_VerifiesAgainstPublicKey(t *testing.T) {
	publicB64, privateB64, key := generateKeyMaterial(t)
	keys, err := LoadVAPIDKeys(publicB64, privateB64)
	require.NoError(t, err)

	expiry := time.Now().Add(TokenLifetime)

	// ECDSA signatures are randomized; every minted token must still verify.
	for i := 0; i < 5; i++ {
		token, err := keys.Token("https://push.example.com", expiry, "mailto:admin@example.com")
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)

		headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
		require.NoError(t, err)
		var header map[string]string
		require.NoError(t, json.Unmarshal(headerJSON, &header))
		assert.Equal(t, "JWT", header["typ"])
		assert.Equal(t, "ES256", header["alg"])

		claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)
		var claims tokenClaims
		require.NoError(t, json.Unmarshal(claimsJSON, &claims))
		assert.Equal(t, "https://push.example.com", claims.Aud)
		assert.Equal(t, "mailto:admin@example.com", claims.Sub)
		assert.Equal(t, expiry.Unix(), claims.Exp)

		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		require.NoError(t, err)
		require.Len(t, sig, 2*sigComponentLen)

		digest := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
		r := new(big.Int).SetBytes(sig[:sigComponentLen])
		s := new(big.Int).SetBytes(sig[sigComponentLen:])
		assert.True(t, ecdsa.Verify(&key.PublicKey, digest[:], r, s))
	}
}

func TestDerToJOSE(t *testing.T) {
	marshal := func(t *testing.T, r, s *big.Int) []byte {
		t.Helper()
		der, err := asn1.Marshal(struct{ R, S *big.Int }{r, s})
		require.NoError(t, err)
		return der
	}

	t.Run("StripsSignPaddingByte", func(t *testing.T) {
		// A component with the top bit set forces DER to prepend 0x00;
		// the fixed-width output must drop it.
		r := new(big.Int).Lsh(big.NewInt(0xFF), 248)
		s := big.NewInt(7)

		out, err := derToJOSE(marshal(t, r, s), sigComponentLen)
		require.NoError(t, err)
		require.Len(t, out, 2*sigComponentLen)
		assert.Equal(t, byte(0xFF), out[0])
		assert.Equal(t, r, new(big.Int).SetBytes(out[:sigComponentLen]))
		assert.Equal(t, s, new(big.Int).SetBytes(out[sigComponentLen:]))
	})

	t.Run("PadsShortComponents", func(t *testing.T) {
		out, err := derToJOSE(marshal(t, big.NewInt(1), big.NewInt(2)), sigComponentLen)
		require.NoError(t, err)
		require.Len(t, out, 2*sigComponentLen)
		assert.Equal(t, byte(0x00), out[0])
		assert.Equal(t, byte(0x01), out[sigComponentLen-1])
		assert.Equal(t, byte(0x02), out[2*sigComponentLen-1])
	})

	t.Run("RejectsMalformedDER", func(t *testing.T) {
		_, err := derToJOSE([]byte{0x01, 0x02, 0x03}, sigComponentLen)
		assert.Error(t, err)
	})

	t.Run("RejectsOversizedComponent", func(t *testing.T) {
		big257 := new(big.Int).Lsh(big.NewInt(1), 260)
		_, err := derToJOSE(marshal(t, big257, big.NewInt(1)), sigComponentLen)
		assert.Error(t, err)
	})

	t.Run("RejectsNonPositiveComponent", func(t *testing.T) {
		_, err := derToJOSE(marshal(t, big.NewInt(0), big.NewInt(1)), sigComponentLen)
		assert.Error(t, err)
	})
}
