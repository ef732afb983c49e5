// ABOUTME: Unit tests for domain-routed token verification
// ABOUTME: Covers per-domain secrets, expiry, signature, and the bearer stub

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	testSessionSecret    = []byte("test-session-secret-for-verifier")
	testSalesforceSecret = []byte("test-salesforce-secret-verifier!")
)

// signTestToken signs a claim set with HS256 for use as test input.
func signTestToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return token
}

func testVerifier() *Verifier {
	return NewVerifier(testSessionSecret, testSalesforceSecret)
}

func TestVerify_SessionToken(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, testSessionSecret, jwt.MapClaims{
		"aud":    "koop-session",
		"iss":    "koop-server",
		"sub":    "user-1",
		"userId": "user-1",
		"email":  "user@example.com",
		"name":   "User One",
		"orgId":  "org-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	result, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Domain != DomainSession {
		t.Errorf("Domain = %q, want %q", result.Domain, DomainSession)
	}
	if result.Identity.SubjectID != "user-1" {
		t.Errorf("SubjectID = %q, want %q", result.Identity.SubjectID, "user-1")
	}
	if result.Identity.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", result.Identity.Email, "user@example.com")
	}
}

func TestVerify_SalesforceParamToken(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, testSalesforceSecret, jwt.MapClaims{
		"aud":         "koop-gis-server",
		"sub":         "sf-user-1",
		"userId":      "005abc",
		"orgId":       "00Dorg",
		"email":       "sf@example.com",
		"name":        "SF User",
		"username":    "sf@example.com.dev",
		"profileName": "System Administrator",
		"permissions": []any{"read", "write"},
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	result, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Domain != DomainSalesforceParam {
		t.Errorf("Domain = %q, want %q", result.Domain, DomainSalesforceParam)
	}
	// userId takes precedence over sub
	if result.Identity.SubjectID != "005abc" {
		t.Errorf("SubjectID = %q, want %q", result.Identity.SubjectID, "005abc")
	}
	if result.Identity.SalesforceID != "sf-user-1" {
		t.Errorf("SalesforceID = %q, want %q", result.Identity.SalesforceID, "sf-user-1")
	}
	if len(result.Identity.Permissions) != 2 || result.Identity.Permissions[0] != "read" {
		t.Errorf("Permissions = %v, want [read write]", result.Identity.Permissions)
	}
}

func TestVerify_SalesforceParamToken_WrongSecret(t *testing.T) {
	// Signed with the session secret but classified as salesforce-param:
	// verification must route to the salesforce secret and fail on signature.
	v := testVerifier()
	token := signTestToken(t, testSessionSecret, jwt.MapClaims{
		"aud":   "koop-gis-server",
		"orgId": "00Dorg",
		"sub":   "sf-user-1",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify() error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_SalesforceDomainToken(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, testSalesforceSecret, jwt.MapClaims{
		"iss": "https://login.salesforce.com",
		"sub": "sf-user-2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	result, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Domain != DomainSalesforceDomain {
		t.Errorf("Domain = %q, want %q", result.Domain, DomainSalesforceDomain)
	}
	if result.Identity.SubjectID != "sf-user-2" {
		t.Errorf("SubjectID = %q, want %q", result.Identity.SubjectID, "sf-user-2")
	}
}

func TestVerify_GenericToken(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, testSessionSecret, jwt.MapClaims{
		"sub":   "generic-user",
		"email": "generic@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	result, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Domain != DomainGeneric {
		t.Errorf("Domain = %q, want %q", result.Domain, DomainGeneric)
	}
}

func TestVerify_GenericToken_NoExpiry(t *testing.T) {
	// exp is only enforced when present on the generic path.
	v := testVerifier()
	token := signTestToken(t, testSessionSecret, jwt.MapClaims{"sub": "generic-user"})

	if _, err := v.Verify(token); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestVerify_SalesforceBearer_NotImplemented(t *testing.T) {
	v := testVerifier()
	// Even a correctly signed bearer token must fail with ErrNotImplemented,
	// never with a signature error.
	for _, secret := range [][]byte{testSessionSecret, testSalesforceSecret, []byte("anything")} {
		token := signTestToken(t, secret, jwt.MapClaims{
			"iss": "3MVG9clientid",
			"aud": "https://login.salesforce.com",
			"sub": "sf-user-3",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := v.Verify(token)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("Verify() error = %v, want ErrNotImplemented", err)
		}
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	v := testVerifier()

	tests := []struct {
		name   string
		secret []byte
		claims jwt.MapClaims
	}{
		{
			name:   "expired session token",
			secret: testSessionSecret,
			claims: jwt.MapClaims{"aud": "koop-session", "iss": "koop-server", "sub": "u1"},
		},
		{
			name:   "expired salesforce token",
			secret: testSalesforceSecret,
			claims: jwt.MapClaims{"aud": "koop-gis-server", "orgId": "o1", "sub": "u1"},
		},
		{
			name:   "expired generic token",
			secret: testSessionSecret,
			claims: jwt.MapClaims{"sub": "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.claims["exp"] = time.Now().Add(-time.Hour).Unix()
			token := signTestToken(t, tt.secret, tt.claims)

			_, err := v.Verify(token)
			if !errors.Is(err, ErrTokenExpired) {
				t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
			}
		})
	}
}

func TestVerify_NotYetValidToken(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, testSessionSecret, jwt.MapClaims{
		"sub": "u1",
		"nbf": time.Now().Add(time.Hour).Unix(),
		"exp": time.Now().Add(2 * time.Hour).Unix(),
	})

	_, err := v.Verify(token)
	if !errors.Is(err, ErrTokenNotYetValid) {
		t.Errorf("Verify() error = %v, want ErrTokenNotYetValid", err)
	}
}

func TestVerify_InvalidSignature(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, []byte("some-other-secret"), jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify() error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_MalformedToken(t *testing.T) {
	v := testVerifier()

	for _, token := range []string{"", "garbage", "a.b"} {
		_, err := v.Verify(token)
		if !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Verify(%q) error = %v, want ErrMalformedToken", token, err)
		}
	}
}

func TestVerifySalesforce(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, testSalesforceSecret, jwt.MapClaims{
		"aud":    "koop-gis-server",
		"sub":    "sf-user-1",
		"userId": "005abc",
		"orgId":  "00Dorg",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	result, err := v.VerifySalesforce(token)
	if err != nil {
		t.Fatalf("VerifySalesforce() error = %v", err)
	}
	if result.Identity.SubjectID != "005abc" {
		t.Errorf("SubjectID = %q, want %q", result.Identity.SubjectID, "005abc")
	}
}

func TestVerifySalesforce_AudienceMismatch(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, testSalesforceSecret, jwt.MapClaims{
		"aud": "someone-else",
		"sub": "sf-user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.VerifySalesforce(token)
	if !errors.Is(err, ErrAudienceMismatch) {
		t.Errorf("VerifySalesforce() error = %v, want ErrAudienceMismatch", err)
	}
}

func TestVerifySalesforce_SessionSecretRejected(t *testing.T) {
	v := testVerifier()
	token := signTestToken(t, testSessionSecret, jwt.MapClaims{
		"aud": "koop-gis-server",
		"sub": "sf-user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.VerifySalesforce(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("VerifySalesforce() error = %v, want ErrInvalidSignature", err)
	}
}
