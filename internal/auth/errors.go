// ABOUTME: Error taxonomy for token classification, verification, and issuance
// ABOUTME: Every expected failure maps to exactly one sentinel error

package auth

import "errors"

// Verification and issuance errors. Handlers translate these into HTTP
// status codes: ErrMissingField becomes 400, everything else here is 401.
var (
	// ErrMalformedToken means the token is not a decodable JWT (wrong
	// segment count or undecodable payload).
	ErrMalformedToken = errors.New("malformed token")

	// ErrNotImplemented is returned for Salesforce JWT bearer tokens.
	// The bearer exchange flow is recognized but unsupported; there is no
	// secret for this path, so verification always fails with this error.
	ErrNotImplemented = errors.New("salesforce bearer token exchange not implemented")

	// ErrInvalidSignature means the signature did not verify against the
	// secret selected for the token's trust domain.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenExpired means the token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrAudienceMismatch means the aud claim did not match the audience
	// required by the token's trust domain.
	ErrAudienceMismatch = errors.New("token audience mismatch")

	// ErrIssuerMismatch means the iss claim did not match the issuer
	// required by the token's trust domain.
	ErrIssuerMismatch = errors.New("token issuer mismatch")

	// ErrTokenNotYetValid means the token's nbf claim is in the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")

	// ErrMissingField means a required identity parameter was absent.
	ErrMissingField = errors.New("missing required field")

	// ErrUnknownDomain should be unreachable: classification always falls
	// back to the generic domain. Kept so an unhandled domain fails loudly
	// instead of minting a session from unverified claims.
	ErrUnknownDomain = errors.New("unknown trust domain")
)
