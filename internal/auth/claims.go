// ABOUTME: Unverified claim decoding and projection into a typed identity
// ABOUTME: Unverified claims are used for routing only, never for authorization

package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// UnverifiedClaims is the payload of a token decoded without checking its
// signature. It exists solely to route the token to the correct trust
// domain; nothing in it may be trusted until verification succeeds.
type UnverifiedClaims map[string]any

// DecodeUnverified extracts the claims from a token without verifying the
// signature. Returns ErrMalformedToken if the token is not three
// base64url segments with a decodable JSON payload.
func DecodeUnverified(tokenString string) (UnverifiedClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return UnverifiedClaims(claims), nil
}

// Issuer returns the iss claim, or "" if absent.
func (c UnverifiedClaims) Issuer() string {
	return stringClaim(c, "iss")
}

// Audiences returns the aud claim as a list. A string aud yields a single
// element; an array aud yields its string elements.
func (c UnverifiedClaims) Audiences() []string {
	return audienceValues(c)
}

// hasAudience reports whether any aud value equals want exactly.
func (c UnverifiedClaims) hasAudience(want string) bool {
	for _, aud := range audienceValues(c) {
		if aud == want {
			return true
		}
	}
	return false
}

// audienceContains reports whether any aud value contains substr.
func (c UnverifiedClaims) audienceContains(substr string) bool {
	for _, aud := range audienceValues(c) {
		if strings.Contains(aud, substr) {
			return true
		}
	}
	return false
}

// Identity is the canonical identity projected from a verified claim set.
// Request-scoped; never persisted.
type Identity struct {
	SubjectID   string   // userId claim if present, else sub
	Email       string
	DisplayName string
	OrgID       string
	Permissions []string
	// Salesforce-specific extras, empty for other domains.
	SalesforceID string // original sub when userId took precedence
	Username     string
	ProfileName  string
	UserType     string
}

// identityFromClaims projects a verified claim set into an Identity.
// Alias precedence: SubjectID prefers userId over sub, matching the
// fallback the rest of the claim set is built around.
func identityFromClaims(claims jwt.MapClaims) Identity {
	id := Identity{
		SubjectID:    stringClaim(claims, "userId"),
		Email:        stringClaim(claims, "email"),
		DisplayName:  stringClaim(claims, "name"),
		OrgID:        stringClaim(claims, "orgId"),
		SalesforceID: stringClaim(claims, "sub"),
		Username:     stringClaim(claims, "username"),
		ProfileName:  stringClaim(claims, "profileName"),
		UserType:     stringClaim(claims, "userType"),
		Permissions:  permissionClaims(claims),
	}
	if id.SubjectID == "" {
		id.SubjectID = stringClaim(claims, "sub")
	}
	return id
}

// stringClaim returns the claim as a string, or "" if absent or not a string.
func stringClaim(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// permissionClaims returns the permissions claim as an ordered string slice.
func permissionClaims(claims map[string]any) []string {
	raw, ok := claims["permissions"].([]any)
	if !ok {
		return nil
	}
	perms := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok {
			perms = append(perms, s)
		}
	}
	return perms
}

// audienceValues normalizes an aud claim that may be a string or an array.
func audienceValues(claims map[string]any) []string {
	switch aud := claims["aud"].(type) {
	case string:
		return []string{aud}
	case []any:
		values := make([]string, 0, len(aud))
		for _, a := range aud {
			if s, ok := a.(string); ok {
				values = append(values, s)
			}
		}
		return values
	case []string:
		return aud
	default:
		return nil
	}
}
