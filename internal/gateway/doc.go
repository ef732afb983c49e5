// Package gateway assembles the koop-auth-gateway HTTP server.
//
// It exposes five operations:
//
//   - POST /auth/token: exchange any verifiable external token for a
//     session token.
//   - POST /auth/salesforce: exchange a Salesforce token, returning the
//     extended user summary and permissions.
//   - GET /auth/verify: verify a token (query param or bearer header) and
//     report its type and claims.
//   - POST /auth/params: mint a session token from raw identity
//     parameters. No cryptographic verification happens on this path; it
//     trusts transport-level authentication and must sit behind a trusted
//     boundary.
//   - GET /auth/health and GET /health: service and process health.
//
// Verification failures map to 401, missing-field validation to 400, and
// unexpected internal errors to 500. Every failure carries a
// human-readable message and, where it helps, a remediation hint.
package gateway
