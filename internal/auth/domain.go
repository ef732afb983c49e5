// ABOUTME: Trust domain classification for incoming tokens
// ABOUTME: Ordered sniffing of unverified iss/aud claims, first match wins

package auth

import "strings"

// TrustDomain identifies which verification policy applies to a token:
// which secret, algorithm allow-list, and audience/issuer constraints.
type TrustDomain string

const (
	// DomainSession is a token this gateway minted itself.
	DomainSession TrustDomain = "session"

	// DomainSalesforceParam is a Salesforce token addressed to the GIS
	// server audience and carrying an orgId.
	DomainSalesforceParam TrustDomain = "salesforce-param"

	// DomainSalesforceDomain is a token issued by a salesforce.com issuer.
	DomainSalesforceDomain TrustDomain = "salesforce-domain"

	// DomainSalesforceBearer is a Salesforce OAuth JWT bearer token.
	// Recognized but unsupported: verification always fails with
	// ErrNotImplemented.
	DomainSalesforceBearer TrustDomain = "salesforce-bearer"

	// DomainGeneric is the fallback for tokens matching no other domain.
	DomainGeneric TrustDomain = "generic"
)

// Session token constants shared by the verifier and the issuer.
const (
	sessionAudience    = "koop-session"
	sessionIssuer      = "koop-server"
	salesforceAudience = "koop-gis-server"
)

// Classify determines the trust domain of a token from its unverified
// claims. Evaluation order is fixed (bearer, session, salesforce-param,
// salesforce-domain, generic) and the first match wins. The function is
// total: every token lands in exactly one domain.
//
// Only iss and aud are consulted here, and only for routing. All
// authorization-relevant claims are re-validated during signature
// verification with the domain's secret.
func Classify(claims UnverifiedClaims) TrustDomain {
	iss := claims.Issuer()

	// Salesforce connected-app client IDs start with 3MVG.
	if strings.HasPrefix(iss, "3MVG") && claims.audienceContains("salesforce.com") {
		return DomainSalesforceBearer
	}

	if claims.hasAudience(sessionAudience) && iss == sessionIssuer {
		return DomainSession
	}

	if claims.hasAudience(salesforceAudience) && stringClaim(claims, "orgId") != "" {
		return DomainSalesforceParam
	}

	if strings.Contains(iss, "salesforce.com") {
		return DomainSalesforceDomain
	}

	return DomainGeneric
}
