// Package auth implements token classification, verification, and session
// issuance for koop-auth-gateway.
//
// # Trust Domains
//
// Incoming tokens are classified into one of five trust domains by
// inspecting the unverified iss and aud claims, in fixed priority order:
//
//   - salesforce-bearer: iss starts with "3MVG" and aud contains
//     "salesforce.com". Recognized but unsupported; always fails with
//     ErrNotImplemented.
//   - session: aud "koop-session" and iss "koop-server". A token this
//     gateway minted itself.
//   - salesforce-param: aud "koop-gis-server" with an orgId claim.
//   - salesforce-domain: iss contains "salesforce.com".
//   - generic: everything else.
//
// Classification happens before verification because different domains use
// different secrets and constraints; trying the wrong secret must not be
// reported as an invalid token. Unverified claims are used for routing
// only. Every authorization-relevant claim is re-validated during
// signature verification.
//
// # Verification
//
// Verifier checks HS256 signatures against the domain's secret:
//
//	verifier := auth.NewVerifier(sessionSecret, salesforceSecret)
//	result, err := verifier.Verify(tokenString)
//
// Failures surface as sentinel errors (ErrInvalidSignature,
// ErrTokenExpired, ErrAudienceMismatch, ...) suitable for errors.Is.
//
// # Session Issuance
//
// Issuer mints session tokens with audience "koop-session", issuer
// "koop-server", and a fixed 8 hour lifetime:
//
//	issuer := auth.NewIssuer(sessionSecret)
//	session, err := issuer.IssueSession(result.Identity, result.Domain)
//
// IssueSessionFromParams mints a session from raw identity parameters with
// no cryptographic check. That path trusts transport-level authentication
// (a reverse proxy or network boundary) to have established the caller's
// identity; deploy it behind one.
package auth
