package gate

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// AdminAuth guards the dashboard and metrics endpoints with a short-lived
// signed bearer token, the same ES256-over-JWT shape CDP uses for its API
// bearer tokens: an operator mints a token out of band (IssueToken) and
// presents it as "Authorization: Bearer <token>" to a route wrapped in
// RequireToken. AdminAuth is immutable after construction and safe for
// concurrent use.
type AdminAuth struct {
	issuer     string
	privateKey *ecdsa.PrivateKey
}

// NewAdminAuth parses a PEM-encoded ECDSA private key (PKCS8 or SEC1/EC)
// and returns an AdminAuth that signs and verifies tokens with it.
func NewAdminAuth(issuer string, pemKey []byte) (*AdminAuth, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, fmt.Errorf("l402/gate: invalid PEM block for admin key")
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		parsed, perr := x509.ParsePKCS8PrivateKey(block.Bytes)
		if perr != nil {
			return nil, fmt.Errorf("l402/gate: failed to parse admin private key: %w", err)
		}
		ecKey, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("l402/gate: admin private key must be ECDSA")
		}
		key = ecKey
	}

	return &AdminAuth{issuer: issuer, privateKey: key}, nil
}

// IssueToken mints a bearer token for subject, valid for ttl.
func (a *AdminAuth) IssueToken(subject string, ttl time.Duration) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: a.privateKey},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("l402/gate: failed to create token signer: %w", err)
	}

	now := time.Now()
	claims := jwt.Claims{
		Subject:   subject,
		Issuer:    a.issuer,
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.Signed(signer).Claims(claims).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("l402/gate: failed to serialize token: %w", err)
	}
	return token, nil
}

// RequireToken wraps next so it only runs if the request carries a valid,
// unexpired bearer token signed by a.
func (a *AdminAuth) RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeJSONError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		parsed, err := jwt.ParseSigned(raw)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		var claims jwt.Claims
		if err := parsed.Claims(&a.privateKey.PublicKey, &claims); err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		if err := claims.Validate(jwt.Expected{Issuer: a.issuer, Time: time.Now()}); err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Expired or invalid bearer token")
			return
		}

		next(w, r)
	}
}
