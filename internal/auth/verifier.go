// ABOUTME: Cryptographic verification of tokens routed by trust domain
// ABOUTME: Each domain selects its own secret, algorithm list, and aud/iss constraints

package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks token signatures against the secret and constraints of
// the token's trust domain. It holds only the two process-wide secrets and
// is safe for concurrent use.
type Verifier struct {
	sessionSecret    []byte
	salesforceSecret []byte
}

// NewVerifier creates a Verifier with the given session and Salesforce
// secrets.
func NewVerifier(sessionSecret, salesforceSecret []byte) *Verifier {
	return &Verifier{
		sessionSecret:    sessionSecret,
		salesforceSecret: salesforceSecret,
	}
}

// Verification is the result of a successful token verification.
type Verification struct {
	Identity Identity
	Domain   TrustDomain
	// Claims is the full verified claim set, for callers that echo claims
	// back (e.g. the verify endpoint).
	Claims jwt.MapClaims
}

// Verify classifies the token and verifies it against its trust domain's
// secret and constraints. The unverified decode is used only to choose the
// verification path; trying the wrong secret would surface as a bogus
// signature failure at the top level otherwise.
//
// Returns one of the sentinel errors from errors.go on failure.
func (v *Verifier) Verify(tokenString string) (*Verification, error) {
	unverified, err := DecodeUnverified(tokenString)
	if err != nil {
		return nil, err
	}

	domain := Classify(unverified)

	var opts []jwt.ParserOption
	var secret []byte

	switch domain {
	case DomainSalesforceBearer:
		// No secret exists for this path. Terminal by design.
		return nil, ErrNotImplemented

	case DomainSession:
		secret = v.sessionSecret
		opts = []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(sessionAudience),
			jwt.WithIssuer(sessionIssuer),
		}

	case DomainSalesforceParam:
		secret = v.salesforceSecret
		opts = []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(salesforceAudience),
		}

	case DomainSalesforceDomain:
		secret = v.salesforceSecret
		opts = []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		}

	case DomainGeneric:
		secret = v.sessionSecret

	default:
		return nil, ErrUnknownDomain
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, translateJWTError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	return &Verification{
		Identity: identityFromClaims(claims),
		Domain:   domain,
		Claims:   claims,
	}, nil
}

// VerifySalesforce verifies a token directly as a Salesforce token,
// skipping classification. Used by the dedicated Salesforce exchange
// endpoint, which only ever receives Salesforce tokens.
func (v *Verifier) VerifySalesforce(tokenString string) (*Verification, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.salesforceSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(salesforceAudience),
	)
	if err != nil {
		return nil, translateJWTError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	return &Verification{
		Identity: identityFromClaims(claims),
		Domain:   DomainSalesforceParam,
		Claims:   claims,
	}, nil
}

// translateJWTError maps golang-jwt parse errors onto the package's error
// taxonomy. Claim validation errors arrive joined under
// jwt.ErrTokenInvalidClaims, so the specific kinds are checked first.
func translateJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudienceMismatch
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuerMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
}
