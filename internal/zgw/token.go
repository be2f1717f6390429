package zgw

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerTTL = 10 * time.Minute

// Signer produces short-lived bearer credentials for ZGW API requests.
// Signing is stateless: every request gets a fresh token, there is no
// session or refresh flow.
type Signer struct {
	clientID string
	secret   string
}

// NewSigner creates a signer for the given ZGW client credentials.
func NewSigner(clientID, secret string) *Signer {
	return &Signer{clientID: clientID, secret: secret}
}

// Sign returns a bearer token in the form the ZGW reference implementations
// expect: HS256, issuer and client_id set to the client identifier.
func (s *Signer) Sign() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":                 s.clientID,
		"iat":                 now.Unix(),
		"exp":                 now.Add(bearerTTL).Unix(),
		"client_id":           s.clientID,
		"user_id":             s.clientID,
		"user_representation": s.clientID,
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.secret))
}
