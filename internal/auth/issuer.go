// ABOUTME: Session token issuance from verified identities or raw parameters
// ABOUTME: Mints HS256 tokens with fixed audience, issuer, and 8 hour lifetime

package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the fixed lifetime of every session token.
const SessionTTL = 8 * time.Hour

// Issuer mints session tokens signed with the session secret. Safe for
// concurrent use; its only side effect is reading the clock once per
// issuance.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer signing with the given session secret.
func NewIssuer(secret []byte) *Issuer {
	return &Issuer{secret: secret, now: time.Now}
}

// Session is a freshly minted session token plus the identity it carries.
type Session struct {
	Token     string
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionParams are the raw identity parameters accepted by
// IssueSessionFromParams. UserID, Email, and OrgID are required.
type SessionParams struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	OrgID     string `json:"orgId"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	UserType  string `json:"userType,omitempty"`
	TimeZone  string `json:"timeZone,omitempty"`
	Locale    string `json:"locale,omitempty"`
}

// IssueSession mints a session token from an already-verified identity.
// The source claim records which trust domain the identity came from.
// Salesforce-originated sessions additionally carry a sessionId set to the
// issuance timestamp in milliseconds; it is informational only and not
// guaranteed unique across concurrent issuances.
func (i *Issuer) IssueSession(identity Identity, domain TrustDomain) (*Session, error) {
	now := i.now()

	claims := jwt.MapClaims{
		"sub":    identity.SubjectID,
		"userId": identity.SubjectID,
		"source": string(domain),
	}
	setClaimIfPresent(claims, "email", identity.Email)
	setClaimIfPresent(claims, "name", identity.DisplayName)
	setClaimIfPresent(claims, "orgId", identity.OrgID)

	if domain == DomainSalesforceParam || domain == DomainSalesforceDomain {
		claims["sessionId"] = now.UnixMilli()
		setClaimIfPresent(claims, "salesforceId", identity.SalesforceID)
		setClaimIfPresent(claims, "username", identity.Username)
		setClaimIfPresent(claims, "profileName", identity.ProfileName)
		setClaimIfPresent(claims, "userType", identity.UserType)
		if identity.Permissions != nil {
			claims["permissions"] = identity.Permissions
		}
	}

	return i.sign(claims, identity, now)
}

// IssueSessionFromParams mints a session token from raw identity
// parameters without any cryptographic verification. This trusts the
// transport boundary (reverse proxy or network) to have authenticated the
// caller already; it is a deliberate trust boundary, and the endpoint
// exposing it must only be reachable from trusted upstreams.
func (i *Issuer) IssueSessionFromParams(params SessionParams) (*Session, error) {
	var missing []string
	if params.UserID == "" {
		missing = append(missing, "userId")
	}
	if params.Email == "" {
		missing = append(missing, "email")
	}
	if params.OrgID == "" {
		missing = append(missing, "orgId")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	name := strings.TrimSpace(params.FirstName + " " + params.LastName)
	if name == "" {
		name = params.Email
	}

	now := i.now()
	claims := jwt.MapClaims{
		"sub":    params.UserID,
		"userId": params.UserID,
		"email":  params.Email,
		"name":   name,
		"orgId":  params.OrgID,
	}
	setClaimIfPresent(claims, "firstName", params.FirstName)
	setClaimIfPresent(claims, "lastName", params.LastName)
	setClaimIfPresent(claims, "userType", params.UserType)
	setClaimIfPresent(claims, "timeZone", params.TimeZone)
	setClaimIfPresent(claims, "locale", params.Locale)

	identity := Identity{
		SubjectID:   params.UserID,
		Email:       params.Email,
		DisplayName: name,
		OrgID:       params.OrgID,
		UserType:    params.UserType,
	}

	return i.sign(claims, identity, now)
}

// sign adds the registered claims and signs the token. exp is always
// iat + SessionTTL.
func (i *Issuer) sign(claims jwt.MapClaims, identity Identity, now time.Time) (*Session, error) {
	expiresAt := now.Add(SessionTTL)
	claims["aud"] = sessionAudience
	claims["iss"] = sessionIssuer
	claims["iat"] = now.Unix()
	claims["exp"] = expiresAt.Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	return &Session{
		Token:     signed,
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// setClaimIfPresent copies a claim only when the value is non-empty, so
// absent fields stay absent in the payload.
func setClaimIfPresent(claims jwt.MapClaims, key, value string) {
	if value != "" {
		claims[key] = value
	}
}
