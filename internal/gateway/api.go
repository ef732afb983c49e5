// ABOUTME: HTTP API handlers for token exchange, verification, and params issuance
// ABOUTME: Translates auth error kinds into per-endpoint JSON failure shapes

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/koopjs/koop-auth-gateway/internal/auth"
)

// ExchangeRequest is the JSON request body for POST /auth/token and
// POST /auth/salesforce.
type ExchangeRequest struct {
	Token string `json:"token"`
}

// ExchangeResponse is the JSON response for POST /auth/token.
type ExchangeResponse struct {
	SessionToken string   `json:"sessionToken"`
	User         UserInfo `json:"user"`
	TokenType    string   `json:"tokenType"`
}

// UserInfo is the user summary returned by the generic exchange.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	OrgID string `json:"orgId"`
}

// ExchangeErrorResponse is the JSON failure shape for POST /auth/token.
type ExchangeErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// SalesforceResponse is the JSON response for POST /auth/salesforce.
type SalesforceResponse struct {
	Success      bool               `json:"success"`
	SessionToken string             `json:"sessionToken"`
	User         SalesforceUserInfo `json:"user"`
	Permissions  []string           `json:"permissions"`
	ExpiresIn    string             `json:"expiresIn"`
	Metadata     SessionMetadata    `json:"metadata"`
}

// SalesforceUserInfo is the extended user summary for Salesforce exchanges.
type SalesforceUserInfo struct {
	ID           string `json:"id"`
	SalesforceID string `json:"salesforceId,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Username     string `json:"username,omitempty"`
	OrgID        string `json:"orgId,omitempty"`
	ProfileName  string `json:"profileName,omitempty"`
	UserType     string `json:"userType,omitempty"`
}

// SessionMetadata describes the exchanged tokens for POST /auth/salesforce.
type SessionMetadata struct {
	OriginalTokenExpiry string `json:"originalTokenExpiry,omitempty"`
	SessionCreated      string `json:"sessionCreated"`
	Source              string `json:"source"`
	OrgID               string `json:"orgId,omitempty"`
}

// SalesforceErrorResponse is the JSON failure shape for POST /auth/salesforce.
type SalesforceErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// VerifyResponse is the JSON response for GET /auth/verify.
type VerifyResponse struct {
	Valid     bool          `json:"valid"`
	TokenType string        `json:"tokenType"`
	Claims    ClaimsSummary `json:"claims"`
}

// ClaimsSummary is a human-oriented rendering of a verified claim set.
type ClaimsSummary struct {
	Issuer          string   `json:"issuer"`
	Audience        string   `json:"audience"`
	Subject         string   `json:"subject,omitempty"`
	UserID          string   `json:"userId,omitempty"`
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	OrgID           string   `json:"orgId,omitempty"`
	Permissions     []string `json:"permissions,omitempty"`
	IssuedAt        string   `json:"issuedAt,omitempty"`
	ExpiresAt       string   `json:"expiresAt"`
	TimeUntilExpiry string   `json:"timeUntilExpiry"`
}

// VerifyErrorResponse is the JSON failure shape for GET /auth/verify.
type VerifyErrorResponse struct {
	Valid     bool   `json:"valid"`
	Error     string `json:"error"`
	TokenType string `json:"tokenType"`
}

// ParamsResponse is the JSON response for POST /auth/params.
type ParamsResponse struct {
	Success      bool           `json:"success"`
	SessionToken string         `json:"sessionToken"`
	User         ParamsUserInfo `json:"user"`
}

// ParamsUserInfo is the user summary returned by params issuance.
type ParamsUserInfo struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	UserID string `json:"userId"`
	OrgID  string `json:"orgId"`
}

// ParamsErrorResponse is the JSON failure shape for POST /auth/params.
type ParamsErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the JSON response for GET /auth/health.
type HealthResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// ServerHealthResponse is the JSON response for GET /health.
type ServerHealthResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Version     string  `json:"version"`
	Environment string  `json:"environment"`
}

// handleTokenExchange handles POST /auth/token. It exchanges any
// verifiable external token for a session token.
func (g *Gateway) handleTokenExchange(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		g.sendJSON(w, http.StatusBadRequest, ExchangeErrorResponse{
			Error:   "No token provided",
			Message: "JWT token is required",
		})
		return
	}

	result, err := g.verifier.Verify(req.Token)
	if err != nil {
		g.logger.Warn("token exchange failed", "error", err)
		g.sendJSON(w, http.StatusUnauthorized, ExchangeErrorResponse{
			Error:   "Invalid token",
			Message: err.Error(),
			Hint:    "Check that the JWT is valid and not expired",
		})
		return
	}

	session, err := g.issuer.IssueSession(result.Identity, result.Domain)
	if err != nil {
		g.logger.Error("session issuance failed", "error", err)
		g.sendJSON(w, http.StatusInternalServerError, ExchangeErrorResponse{
			Error:   "Internal server error",
			Message: "could not create session token",
		})
		return
	}

	g.logger.Info("token exchanged",
		"token_type", string(result.Domain),
		"user_id", result.Identity.SubjectID,
	)

	g.sendJSON(w, http.StatusOK, ExchangeResponse{
		SessionToken: session.Token,
		User: UserInfo{
			ID:    result.Identity.SubjectID,
			Name:  result.Identity.DisplayName,
			Email: result.Identity.Email,
			OrgID: result.Identity.OrgID,
		},
		TokenType: string(result.Domain),
	})
}

// handleSalesforceExchange handles POST /auth/salesforce. The token is
// verified directly against the Salesforce secret; this endpoint only ever
// receives Salesforce tokens.
func (g *Gateway) handleSalesforceExchange(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		g.sendJSON(w, http.StatusBadRequest, ExchangeErrorResponse{
			Error:   "No token provided",
			Message: "Salesforce JWT is required",
		})
		return
	}

	verified, err := g.verifier.VerifySalesforce(req.Token)
	if err != nil {
		g.logger.Warn("salesforce authentication failed", "error", err)
		g.sendJSON(w, http.StatusUnauthorized, SalesforceErrorResponse{
			Success: false,
			Error:   salesforceErrorMessage(err),
			Details: err.Error(),
			Hint:    "Please return to Salesforce and generate a new token",
		})
		return
	}

	session, err := g.issuer.IssueSession(verified.Identity, verified.Domain)
	if err != nil {
		g.logger.Error("session issuance failed", "error", err)
		g.sendJSON(w, http.StatusInternalServerError, SalesforceErrorResponse{
			Success: false,
			Error:   "Internal server error",
		})
		return
	}

	identity := verified.Identity
	permissions := identity.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	g.logger.Info("salesforce user authenticated",
		"user", identity.DisplayName,
		"org_id", identity.OrgID,
	)

	g.sendJSON(w, http.StatusOK, SalesforceResponse{
		Success:      true,
		SessionToken: session.Token,
		User: SalesforceUserInfo{
			ID:           identity.SubjectID,
			SalesforceID: identity.SalesforceID,
			Name:         identity.DisplayName,
			Email:        identity.Email,
			Username:     identity.Username,
			OrgID:        identity.OrgID,
			ProfileName:  identity.ProfileName,
			UserType:     identity.UserType,
		},
		Permissions: permissions,
		ExpiresIn:   "8h",
		Metadata: SessionMetadata{
			OriginalTokenExpiry: claimTime(verified.Claims, "exp"),
			SessionCreated:      session.IssuedAt.UTC().Format(time.RFC3339),
			Source:              "salesforce",
			OrgID:               identity.OrgID,
		},
	})
}

// handleVerify handles GET /auth/verify. The token arrives via the token
// query parameter or a bearer Authorization header.
func (g *Gateway) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if bearer, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
			token = bearer
		}
	}
	if token == "" {
		g.sendJSON(w, http.StatusBadRequest, ExchangeErrorResponse{
			Error:   "No token provided",
			Message: "Provide token in query param or Authorization header",
		})
		return
	}

	result, err := g.verifier.Verify(token)
	if err != nil {
		g.sendJSON(w, http.StatusUnauthorized, VerifyErrorResponse{
			Valid:     false,
			Error:     err.Error(),
			TokenType: "invalid",
		})
		return
	}

	g.sendJSON(w, http.StatusOK, VerifyResponse{
		Valid:     true,
		TokenType: string(result.Domain),
		Claims:    summarizeClaims(result),
	})
}

// handleParams handles POST /auth/params. It mints a session token from
// raw identity parameters with no cryptographic verification: the caller's
// identity is trusted because this endpoint must only be reachable through
// an authenticated transport boundary (reverse proxy or private network).
func (g *Gateway) handleParams(w http.ResponseWriter, r *http.Request) {
	var params auth.SessionParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		g.sendJSON(w, http.StatusBadRequest, ParamsErrorResponse{
			Success: false,
			Error:   "invalid JSON body",
		})
		return
	}

	session, err := g.issuer.IssueSessionFromParams(params)
	if errors.Is(err, auth.ErrMissingField) {
		g.sendJSON(w, http.StatusBadRequest, ParamsErrorResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	if err != nil {
		g.logger.Error("params issuance failed", "error", err)
		g.sendJSON(w, http.StatusInternalServerError, ParamsErrorResponse{
			Success: false,
			Error:   "internal server error",
		})
		return
	}

	g.logger.Info("params session issued",
		"user_id", session.Identity.SubjectID,
		"org_id", session.Identity.OrgID,
	)

	g.sendJSON(w, http.StatusOK, ParamsResponse{
		Success:      true,
		SessionToken: session.Token,
		User: ParamsUserInfo{
			Name:   session.Identity.DisplayName,
			Email:  session.Identity.Email,
			UserID: session.Identity.SubjectID,
			OrgID:  session.Identity.OrgID,
		},
	})
}

// handleAuthHealth handles GET /auth/health.
func (g *Gateway) handleAuthHealth(w http.ResponseWriter, r *http.Request) {
	g.sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "OK",
		Message: "Koop Authentication Service is running",
		Endpoints: []string{
			"POST /auth/token - Generic token exchange",
			"POST /auth/salesforce - Salesforce JWT exchange",
			"POST /auth/params - Salesforce params authentication",
			"GET /auth/verify - Token verification",
			"GET /auth/health - Health check",
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleHealth handles GET /health.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.sendJSON(w, http.StatusOK, ServerHealthResponse{
		Status:      "OK",
		Message:     "Koop Auth Gateway is running",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(g.startedAt).Seconds(),
		Version:     g.version,
		Environment: g.environment,
	})
}

// sendJSON writes a JSON response with the given status code.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.Error("encoding response", "error", err)
	}
}

// salesforceErrorMessage maps verification error kinds onto the messages
// the Salesforce exchange endpoint reports.
func salesforceErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "Salesforce token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return "Salesforce token not yet valid"
	default:
		return "Invalid Salesforce token format or signature"
	}
}

// summarizeClaims renders a verified claim set for the verify endpoint.
func summarizeClaims(result *auth.Verification) ClaimsSummary {
	claims := result.Claims

	summary := ClaimsSummary{
		Issuer:      claimString(claims, "iss", "none"),
		Audience:    claimAudience(claims),
		Subject:     result.Identity.SalesforceID,
		UserID:      result.Identity.SubjectID,
		Name:        result.Identity.DisplayName,
		Email:       result.Identity.Email,
		OrgID:       result.Identity.OrgID,
		Permissions: result.Identity.Permissions,
	}
	if summary.Subject == "" {
		summary.Subject = summary.UserID
	}

	summary.IssuedAt = claimTime(claims, "iat")
	if exp := claimTime(claims, "exp"); exp != "" {
		summary.ExpiresAt = exp
		until := time.Until(claimUnixTime(claims, "exp")).Round(time.Minute)
		summary.TimeUntilExpiry = fmt.Sprintf("%d minutes", int(until.Minutes()))
	} else {
		summary.ExpiresAt = "no expiry"
		summary.TimeUntilExpiry = "no expiry"
	}

	return summary
}

// claimString returns a string claim, or the fallback when absent.
func claimString(claims map[string]any, key, fallback string) string {
	if v, ok := claims[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// claimAudience renders the aud claim, joining array audiences.
func claimAudience(claims map[string]any) string {
	switch aud := claims["aud"].(type) {
	case string:
		return aud
	case []any:
		parts := make([]string, 0, len(aud))
		for _, a := range aud {
			if s, ok := a.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}
	return "none"
}

// claimUnixTime returns a numeric claim as a time, or the zero time.
func claimUnixTime(claims map[string]any, key string) time.Time {
	if v, ok := claims[key].(float64); ok {
		return time.Unix(int64(v), 0)
	}
	return time.Time{}
}

// claimTime formats a numeric timestamp claim as RFC 3339, or "" if absent.
func claimTime(claims map[string]any, key string) string {
	t := claimUnixTime(claims, key)
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
